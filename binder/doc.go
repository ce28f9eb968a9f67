// Package binder coordinates repeated, overlapping, cancellable loads
// against reusable display targets.
//
// A target (widget, cell, menu item) exposes one mutable display slot
// and is rebound many times over its lifetime. The hazard this package
// exists for: an old, still-in-flight load completing after a newer one
// and clobbering its content. The coordinator prevents that by issuing a
// strictly increasing identifier per bind, recording it on the target,
// and discarding any completion whose identifier no longer matches.
//
// # Main Types
//
//   - [Coordinator]: Bind/Cancel entry points and the stale-suppression
//     completion path
//   - [Binding]: per-target state (current identifier + task handle),
//     embedded in target types
//   - [Target]: capability interface for anything with a display slot
//   - [Fetcher]: the external resource manager boundary
//   - [Request], [Options], [Result]: one load's inputs and outcome
//
// # Threading
//
// A single UI-affine loop (see the runloop package) owns all binding
// state and every display slot. Bind and Cancel must be called on it;
// the coordinator marshals fetcher callbacks back onto it, so a Fetcher
// may invoke its hooks from any goroutine.
//
// # Failure taxonomy
//
// Every failure is delivered through the completion callback, never by
// panicking or blocking the caller:
//
//   - [ErrEmptySource]: bind with no source (synchronous)
//   - [StaleError]: completion for a superseded bind, wrapping the
//     outcome it would have delivered
//   - [ErrCancelled]: the fetch was cancelled
//   - anything else: propagated verbatim from the resource manager
//
// Callers distinguishing "really failed" from "superseded" inspect the
// error with [IsStale], [IsCancelled], and [IsEmptySource].
package binder
