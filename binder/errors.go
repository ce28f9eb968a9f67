package binder

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors produced by the coordinator itself.
var (
	// ErrEmptySource indicates a bind request carried no source.
	ErrEmptySource = errors.New("binder: request has no source")

	// ErrCancelled marks a load that terminated because its task was
	// cancelled. The resource manager wraps its cancellation failures
	// with this sentinel.
	ErrCancelled = errors.New("binder: load cancelled")
)

// StaleError reports that a completion arrived for a load that a later
// bind on the same target had already superseded. The slot and binding
// state were left untouched; Superseded carries the outcome the load
// would have delivered, for diagnostics.
type StaleError struct {
	Superseded Result
}

func (e *StaleError) Error() string {
	if e.Superseded.Err != nil {
		return fmt.Sprintf("binder: stale task (superseded outcome: %v)", e.Superseded.Err)
	}
	return "binder: stale task (superseded outcome: success)"
}

// IsEmptySource reports whether err is the empty-source failure.
func IsEmptySource(err error) bool {
	return errors.Is(err, ErrEmptySource)
}

// IsStale reports whether err marks a superseded completion.
func IsStale(err error) bool {
	var se *StaleError
	return errors.As(err, &se)
}

// AsStale returns the StaleError in err's chain, if any.
func AsStale(err error) (*StaleError, bool) {
	var se *StaleError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsCancelled reports whether err marks a cancelled load. Both the
// coordinator's sentinel and a bare context.Canceled from the fetch
// qualify.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
