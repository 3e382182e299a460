package barsched

import (
	"context"
	"sync"
)

// orderQueue turns a schedQueue into the blocking, many-producer
// single-consumer queue the server drains.
//
// Submit never blocks beyond the internal lock. Take blocks until an
// order is available, the context is cancelled or the queue is closed.
// Only one goroutine may call Take at a time.
type orderQueue struct {
	mu     sync.Mutex
	q      schedQueue[*Order]
	closed bool

	// notify holds at most one pending wake-up for the consumer.
	notify chan struct{}
}

func newOrderQueue(q schedQueue[*Order]) *orderQueue {
	return &orderQueue{
		q:      q,
		notify: make(chan struct{}, 1),
	}
}

// Submit enqueues o. It reports false when the queue has been closed,
// in which case o is not scheduled.
func (oq *orderQueue) Submit(o *Order) bool {
	oq.mu.Lock()
	if oq.closed {
		oq.mu.Unlock()
		return false
	}
	oq.q.Push(o)
	oq.mu.Unlock()

	select {
	case oq.notify <- struct{}{}:
	default:
		// consumer already has a wake-up pending
	}
	return true
}

// Take removes the next order chosen by the ordering, waiting while the
// queue is empty. The wait is interrupted by ctx; the returned error is
// then ctx.Err().
func (oq *orderQueue) Take(ctx context.Context) (*Order, error) {
	for {
		oq.mu.Lock()
		if o, ok := oq.q.Pop(); ok {
			oq.mu.Unlock()
			return o, nil
		}
		closed := oq.closed
		oq.mu.Unlock()
		if closed {
			return nil, ErrQueueClosed
		}

		select {
		case <-oq.notify:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close rejects further submissions and wakes a waiting consumer.
// Orders already queued can still be taken.
func (oq *orderQueue) Close() {
	oq.mu.Lock()
	oq.closed = true
	oq.mu.Unlock()
	select {
	case oq.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of orders waiting.
func (oq *orderQueue) Len() int {
	oq.mu.Lock()
	defer oq.mu.Unlock()
	return oq.q.Len()
}
