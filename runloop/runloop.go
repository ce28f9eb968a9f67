// Package runloop provides the UI-affine execution context the binding
// coordinator relies on. All coordinator state and every display slot is
// owned by a single logical thread; workers hand their results to that
// thread through a Dispatcher rather than touching shared state directly.
//
// Loop is the headless implementation: one goroutine draining a function
// queue in submission order. TUI builds substitute their own Dispatcher
// (a bubbletea program's Send loop fills the same role).
package runloop

import (
	"sync"
)

// Dispatcher marshals a function onto the UI-affine thread. Functions are
// executed one at a time, in the order they were posted.
type Dispatcher interface {
	// Post schedules fn to run on the loop. It never blocks the caller
	// waiting for fn to execute.
	Post(fn func())
}

// Loop is a single-goroutine Dispatcher. The zero value is not usable;
// create one with NewLoop and call Start before posting.
type Loop struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	running bool
	stopped bool
	done    chan struct{}
}

// NewLoop creates a stopped Loop.
func NewLoop() *Loop {
	l := &Loop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Start launches the loop goroutine. Calling Start on a running or
// stopped loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running || l.stopped {
		return
	}
	l.running = true
	go l.run()
}

// Post schedules fn to run on the loop goroutine. Posting to a stopped
// loop discards fn. Post never blocks.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
}

// Stop drains all queued functions and then terminates the loop
// goroutine. It blocks until the goroutine has exited. Stop is safe to
// call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.stopped = true
	wasRunning := l.running
	l.cond.Signal()
	l.mu.Unlock()

	if !wasRunning {
		close(l.done)
		return
	}
	<-l.done
}

// run drains the queue until stopped. Queued functions submitted before
// Stop still execute.
func (l *Loop) run() {
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.stopped {
			l.cond.Wait()
		}
		if len(l.queue) == 0 && l.stopped {
			l.mu.Unlock()
			close(l.done)
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// FuncDispatcher adapts a plain function to the Dispatcher interface.
// Tests use it to run callbacks inline, making the test goroutine the
// UI-affine thread.
type FuncDispatcher func(fn func())

// Post implements Dispatcher.
func (d FuncDispatcher) Post(fn func()) { d(fn) }

// Inline is a Dispatcher that executes functions synchronously on the
// calling goroutine.
var Inline Dispatcher = FuncDispatcher(func(fn func()) { fn() })
