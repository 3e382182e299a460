package barsched

const (
	initialFifoCapacity = 64
)

// fifoQueue implements a growable first-in–first-out queue.
//
// It satisfies schedQueue[T]. Elements leave strictly in the order
// they were pushed. No priorities, no reordering. The round robin
// policy uses it too: a preempted order is pushed again and so lands
// behind everything already waiting.
type fifoQueue[T any] struct {
	buf        []T // circular buffer
	head, tail int // read/write indices
	size       int // number of elements currently buffered
	capacity   int
}

// newFifoQueue creates a FIFO queue with the given initial capacity.
// The buffer doubles whenever a Push finds it full.
func newFifoQueue[T any](capacity int) *fifoQueue[T] {
	if capacity <= 0 {
		capacity = initialFifoCapacity
	}
	return &fifoQueue[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
}

// Len returns the number of elements currently waiting in the queue.
func (q *fifoQueue[T]) Len() int { return q.size }

// Push inserts v at the tail of the queue, growing the buffer if needed.
func (q *fifoQueue[T]) Push(v T) {
	if q.size == q.capacity {
		q.grow()
	}
	q.buf[q.tail] = v
	q.tail++
	if q.tail == q.capacity {
		q.tail = 0
	}
	q.size++
}

// Pop removes and returns the oldest element.
//
// If the queue is empty, returns the zero value and false.
func (q *fifoQueue[T]) Pop() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	v := q.buf[q.head]
	q.buf[q.head] = zero // drop reference
	q.head++
	if q.head == q.capacity {
		q.head = 0
	}
	q.size--
	return v, true
}

// grow doubles the buffer and unwraps the ring so head is at index 0.
func (q *fifoQueue[T]) grow() {
	newCap := q.capacity * 2
	buf := make([]T, newCap)
	n := copy(buf, q.buf[q.head:])
	copy(buf[n:], q.buf[:q.head])
	q.buf = buf
	q.head = 0
	q.tail = q.size
	q.capacity = newCap
}
