package binder

import (
	"sync/atomic"

	"github.com/foxstudiohua/AsynKingfisher/taskid"
)

// Binding is the per-target coordination state: the identifier of the
// current load and its in-flight task handle. Embed one Binding (by
// value) in each target type; its lifetime is then bounded by the
// target's own and no separate cleanup is required.
//
// The identifier is atomic because the resource manager polls it through
// the StillCurrent predicate from its own goroutine. The task handle is
// only read and written on the UI loop.
//
// The zero value is idle. A Binding must not be copied after first use.
type Binding struct {
	id   atomic.Uint64
	task TaskHandle
}

// Current returns the identifier of the pending load, or taskid.None
// when the target is idle. Safe to call from any goroutine.
func (b *Binding) Current() taskid.ID {
	return taskid.ID(b.id.Load())
}

// Task returns the in-flight task handle, nil when none is pending or
// the handle has not yet been resolved. UI loop only.
func (b *Binding) Task() TaskHandle {
	return b.task
}

// Idle reports whether no load is pending.
func (b *Binding) Idle() bool {
	return b.Current() == taskid.None
}

func (b *Binding) setCurrent(id taskid.ID) {
	b.id.Store(uint64(id))
}

func (b *Binding) setTask(t TaskHandle) {
	b.task = t
}

// clear returns the binding to idle. Task is dropped together with the
// identifier so the invariant "task non-nil only while an identifier is
// set" holds across every terminal transition.
func (b *Binding) clear() {
	b.id.Store(uint64(taskid.None))
	b.task = nil
}
