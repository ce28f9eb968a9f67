package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// callMsg carries a marshaled function into the bubbletea update loop.
type callMsg struct {
	fn func()
}

// Dispatcher adapts a bubbletea program to runloop.Dispatcher: posted
// functions are sent as messages and executed inside Update, which runs
// on the program's single goroutine. Functions posted before the program
// is attached are queued and flushed on attach, covering the window
// between coordinator construction and program start.
type Dispatcher struct {
	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

// NewDispatcher creates a detached dispatcher. Posted functions queue
// until Attach.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Post implements runloop.Dispatcher.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	p := d.program
	if p == nil {
		d.pending = append(d.pending, fn)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	p.Send(callMsg{fn: fn})
}

// Attach connects the running program and flushes queued functions.
func (d *Dispatcher) Attach(p *tea.Program) {
	d.mu.Lock()
	d.program = p
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range pending {
		p.Send(callMsg{fn: fn})
	}
}
