package barsched

import (
	"context"
	"sync"
)

// StartBarrier releases every participant of a run at the same moment.
//
// It is sized to the number of patrons plus the server plus the driver.
// Each participant arrives once; when the last one arrives the barrier
// opens for good.
type StartBarrier struct {
	mu       sync.Mutex
	waiting  int
	released chan struct{}
}

// NewStartBarrier creates a barrier for the given number of parties.
// A barrier with no parties is open from the start.
func NewStartBarrier(parties int) *StartBarrier {
	b := &StartBarrier{
		waiting:  parties,
		released: make(chan struct{}),
	}
	if parties <= 0 {
		close(b.released)
	}
	return b
}

// Arrive counts the caller in without waiting for the others.
// Arrivals after the barrier opened are ignored.
func (b *StartBarrier) Arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.waiting <= 0 {
		return
	}
	b.waiting--
	if b.waiting == 0 {
		close(b.released)
	}
}

// Await counts the caller in and blocks until every party has arrived
// or ctx is done.
func (b *StartBarrier) Await(ctx context.Context) error {
	b.Arrive()
	select {
	case <-b.released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Released is closed once every party has arrived.
func (b *StartBarrier) Released() <-chan struct{} { return b.released }

// Pending returns how many parties have not arrived yet.
func (b *StartBarrier) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waiting
}
