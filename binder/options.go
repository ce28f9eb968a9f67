package binder

import (
	"image"
	"time"

	"github.com/foxstudiohua/AsynKingfisher/event"
	"github.com/foxstudiohua/AsynKingfisher/internal/logging"
	"github.com/foxstudiohua/AsynKingfisher/taskid"
)

// Options tunes one load. The zero value is usable.
type Options struct {
	// KeepCurrentImageWhileLoading suppresses the placeholder overwrite
	// when the slot already holds content. Ignored for target classes
	// that force placeholder display (see PlaceholderForcer).
	KeepCurrentImageWhileLoading bool

	// OnFailureImage is applied to the slot on terminal failure. When
	// nil, the slot keeps whatever the placeholder step left there.
	OnFailureImage image.Image

	// Progress holds progress observers invoked in registration order.
	// Request.OnProgress is appended to this list for the duration of
	// its own load; it never replaces earlier observers.
	Progress []ProgressFunc

	// Timeout bounds the fetch. Zero uses the fetcher's default.
	Timeout time.Duration

	// ForceRefresh makes the fetcher bypass its cache lookup.
	ForceRefresh bool
}

// appendProgress returns the observer list with extra appended, without
// aliasing the caller's slice.
func appendProgress(observers []ProgressFunc, extra ProgressFunc) []ProgressFunc {
	if extra == nil {
		return observers
	}
	merged := make([]ProgressFunc, 0, len(observers)+1)
	merged = append(merged, observers...)
	return append(merged, extra)
}

// coordinatorConfig holds optional configuration for a Coordinator.
type coordinatorConfig struct {
	logger *logging.Logger
	bus    *event.Bus
	gen    *taskid.Generator
}

// Option configures a Coordinator.
type Option func(*coordinatorConfig)

// WithLogger sets the structured logger. If unset, logging is disabled.
func WithLogger(l *logging.Logger) Option {
	return func(c *coordinatorConfig) { c.logger = l }
}

// WithBus sets an event bus on which the coordinator publishes load
// lifecycle events. If nil, no events are published.
func WithBus(b *event.Bus) Option {
	return func(c *coordinatorConfig) { c.bus = b }
}

// WithGenerator sets the task identifier generator. If unset, the
// coordinator uses its own. Sharing one generator across coordinators
// keeps identifiers process-wide unique.
func WithGenerator(g *taskid.Generator) Option {
	return func(c *coordinatorConfig) { c.gen = g }
}
