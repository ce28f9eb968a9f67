// Package event provides a pub-sub event bus and the load lifecycle
// events published by the binding coordinator.
//
// Event types follow the pattern "category.action":
//   - load.started, load.progress, load.finished
//   - load.stale, load.cancelled
package event

import (
	"time"

	"github.com/foxstudiohua/AsynKingfisher/taskid"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "load.started").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// LoadStartedEvent is emitted when a bind call hands a source to the
// resource manager.
type LoadStartedEvent struct {
	baseEvent
	TaskID   taskid.ID // Identifier issued for this load
	CacheKey string    // Cache key of the requested source
}

// NewLoadStartedEvent creates a LoadStartedEvent.
func NewLoadStartedEvent(id taskid.ID, cacheKey string) LoadStartedEvent {
	return LoadStartedEvent{
		baseEvent: newBaseEvent("load.started"),
		TaskID:    id,
		CacheKey:  cacheKey,
	}
}

// LoadProgressEvent is emitted as data for a load arrives.
type LoadProgressEvent struct {
	baseEvent
	TaskID   taskid.ID
	Received int64 // Bytes received so far
	Expected int64 // Total expected bytes, -1 if unknown
}

// NewLoadProgressEvent creates a LoadProgressEvent.
func NewLoadProgressEvent(id taskid.ID, received, expected int64) LoadProgressEvent {
	return LoadProgressEvent{
		baseEvent: newBaseEvent("load.progress"),
		TaskID:    id,
		Received:  received,
		Expected:  expected,
	}
}

// LoadFinishedEvent is emitted when a load reaches a terminal outcome
// while still current for its target. Err is nil on success.
type LoadFinishedEvent struct {
	baseEvent
	TaskID   taskid.ID
	CacheKey string
	Err      error
}

// NewLoadFinishedEvent creates a LoadFinishedEvent.
func NewLoadFinishedEvent(id taskid.ID, cacheKey string, err error) LoadFinishedEvent {
	return LoadFinishedEvent{
		baseEvent: newBaseEvent("load.finished"),
		TaskID:    id,
		CacheKey:  cacheKey,
		Err:       err,
	}
}

// LoadStaleEvent is emitted when a completion arrives for a load that a
// later bind on the same target has superseded. The slot is untouched.
type LoadStaleEvent struct {
	baseEvent
	TaskID    taskid.ID // Identifier of the superseded load
	CurrentID taskid.ID // Identifier currently bound to the target
	CacheKey  string
}

// NewLoadStaleEvent creates a LoadStaleEvent.
func NewLoadStaleEvent(id, current taskid.ID, cacheKey string) LoadStaleEvent {
	return LoadStaleEvent{
		baseEvent: newBaseEvent("load.stale"),
		TaskID:    id,
		CurrentID: current,
		CacheKey:  cacheKey,
	}
}

// LoadCancelledEvent is emitted when a current load completes with a
// cancellation failure.
type LoadCancelledEvent struct {
	baseEvent
	TaskID   taskid.ID
	CacheKey string
}

// NewLoadCancelledEvent creates a LoadCancelledEvent.
func NewLoadCancelledEvent(id taskid.ID, cacheKey string) LoadCancelledEvent {
	return LoadCancelledEvent{
		baseEvent: newBaseEvent("load.cancelled"),
		TaskID:    id,
		CacheKey:  cacheKey,
	}
}
