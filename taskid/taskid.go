// Package taskid issues process-wide unique, strictly increasing task
// identifiers. Identifiers order load attempts against a single display
// target: a completion whose identifier no longer matches the target's
// current one belongs to a superseded load.
package taskid

import "sync/atomic"

// ID identifies a single load attempt. IDs are totally ordered and never
// reused within a process. The zero value is reserved to mean "no task".
type ID uint64

// None is the zero ID, held by targets with no load in flight.
const None ID = 0

// Generator issues IDs. The zero value is ready to use; the first ID
// issued is 1. It is safe for concurrent use, although coordinator binds
// always issue from the UI loop.
type Generator struct {
	n atomic.Uint64
}

// Next returns a fresh ID, strictly greater than every ID previously
// returned by this generator.
func (g *Generator) Next() ID {
	return ID(g.n.Add(1))
}
