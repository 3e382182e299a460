package barsched

import (
	"errors"
)

var (
	// ErrQueueClosed is returned by Take once the queue has been closed
	// and no further orders will be handed out.
	ErrQueueClosed = errors.New("queue: queue is closed")

	// ErrNilOrder is returned when a nil order is submitted.
	ErrNilOrder = errors.New("queue: order is nil")
)

// schedQueue is the ordering half of a queueing discipline.
//
// It decides which pending element leaves next and nothing else.
// Implementations are not safe for concurrent use; orderQueue wraps
// them with the locking and blocking behavior the server relies on.
type schedQueue[T any] interface {
	// Push appends an element. Ordering among equal elements is
	// the order of Push calls.
	Push(v T)

	// Pop removes and returns the next element chosen by the
	// ordering. The boolean reports whether one was available.
	Pop() (T, bool)

	// Len returns the number of elements waiting.
	Len() int
}
