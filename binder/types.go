package binder

import (
	"image"
)

// Target is anything that exposes a mutable display slot: a widget, a
// list cell, a menu entry. Targets are owned by the caller and reused
// across many binds over their lifetime; the coordinator never creates
// or destroys them.
//
// Slot and SetSlot must only be touched from the UI loop. While a load
// is pending for a target, no code other than the coordinator should
// mutate the slot; the coordinator does not defend against concurrent
// slot writers.
type Target interface {
	// Slot returns the currently displayed content, nil if empty.
	Slot() image.Image

	// SetSlot replaces the displayed content.
	SetSlot(img image.Image)

	// Binding returns the per-target coordination state. Implementations
	// embed a Binding and return its address, so the state's lifetime is
	// bounded by the target's own.
	Binding() *Binding
}

// PlaceholderForcer is an optional Target capability. Target classes
// whose ForcesPlaceholder returns true always have the request
// placeholder applied on bind, regardless of
// Options.KeepCurrentImageWhileLoading. The flag is fixed per target
// class, not per request.
type PlaceholderForcer interface {
	ForcesPlaceholder() bool
}

// Source describes what to load. It is opaque to the coordinator, which
// only threads it through to the resource manager; CacheKey identifies
// it in logs, events, and caches.
type Source interface {
	CacheKey() string
}

// TaskHandle represents one in-flight fetch owned by the resource
// manager. Cancel signals cooperative cancellation: the manager is
// expected to deliver a cancellation-flavored failure through the normal
// completion path rather than stopping silently. Cancelling a finished
// task is a no-op.
type TaskHandle interface {
	Cancel()
}

// ProgressFunc observes download progress. expected is -1 when the total
// size is unknown.
type ProgressFunc func(received, expected int64)

// CompletionFunc receives the single terminal outcome of a bind.
type CompletionFunc func(Result)

// Result is the terminal outcome of one load. Exactly one of the
// following holds: Err is nil and Image carries the decoded content, or
// Err is non-nil and Image is what was retrieved before the failure
// (usually nil).
type Result struct {
	Image  image.Image
	Source Source
	Err    error
}

// Request describes one bind call. It is treated as immutable once
// submitted.
type Request struct {
	// Source to load. A nil Source is an explicit "no source" request:
	// the slot receives the placeholder and the completion reports
	// ErrEmptySource synchronously, with no task created.
	Source Source

	// Placeholder shown while the load is in flight, subject to the
	// placeholder policy in Options.
	Placeholder image.Image

	// Options tunes placeholder, failure, and fetch behavior.
	Options Options

	// OnProgress, if set, is appended to Options.Progress for this load.
	OnProgress ProgressFunc

	// OnComplete, if set, receives the terminal outcome: success, fetch
	// failure, cancellation, stale suppression, or empty source.
	OnComplete CompletionFunc
}

// Hooks is the callback set the coordinator hands to a Fetcher for one
// load. The coordinator marshals every hook body onto its UI loop, so
// fetcher implementations may invoke them from any goroutine. The one
// exception is StillCurrent, which the fetcher polls directly from its
// own goroutine.
type Hooks struct {
	// OnTaskHandle delivers the in-flight handle once the fetcher has
	// one. Invoked at most once, before OnComplete.
	OnTaskHandle func(TaskHandle)

	// OnProgressive delivers partially decoded content for progressively
	// decodable formats. Invoked zero or more times, strictly before
	// OnComplete. The fetcher must stop invoking it once StillCurrent
	// reports false.
	OnProgressive func(img image.Image)

	// OnProgress reports received bytes. expected is -1 when unknown.
	OnProgress func(received, expected int64)

	// StillCurrent reports whether this load is still the current one
	// for its target. Safe to call from any goroutine.
	StillCurrent func() bool

	// OnComplete delivers exactly one terminal Result per fetch.
	OnComplete func(Result)
}

// Fetcher is the external resource manager boundary. Fetch starts an
// asynchronous load and returns its handle, or nil when the handle
// resolves asynchronously (it is then delivered through
// Hooks.OnTaskHandle). Fetch itself must not block.
type Fetcher interface {
	Fetch(src Source, opts Options, hooks Hooks) TaskHandle
}
