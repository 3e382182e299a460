package barsched

import (
	"container/heap"
)

const (
	prioCap = 256
)

// item wraps an element stored in the heap queue.
type item[T any] struct {
	// v is the queued element.
	v T

	// seq is the insertion counter. It breaks ties between elements
	// the comparator considers equal, so equal elements leave in
	// arrival order.
	seq uint64

	// index is maintained by the heap. It stores the element’s current
	// position and is required by heap.Interface.
	index int
}

// heapQueue is a stable min-heap ordered by a caller-supplied comparator.
//
// The shortest-job-first policy uses it with a comparator on
// ExecutionTime. Selection is non-preemptive: the queue only decides
// which order starts next.
type heapQueue[T any] struct {
	pq  priorityQueue[T]
	seq uint64
}

// newHeapQueue creates an empty heap queue. less reports whether a
// should leave before b.
func newHeapQueue[T any](less func(a, b T) bool) *heapQueue[T] {
	q := &heapQueue[T]{}
	q.pq = priorityQueue[T]{
		items: make([]*item[T], 0, prioCap), // preallocate
		less:  less,
	}
	heap.Init(&q.pq)
	return q
}

// Push inserts v, stamping it with the next insertion sequence number.
func (q *heapQueue[T]) Push(v T) {
	q.seq++
	heap.Push(&q.pq, &item[T]{v: v, seq: q.seq})
}

// Pop removes and returns the smallest element.
// If the queue is empty, Pop returns the zero value and false.
func (q *heapQueue[T]) Pop() (T, bool) {
	if q.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	it := heap.Pop(&q.pq).(*item[T])
	return it.v, true
}

// Len returns the number of elements currently stored in the queue.
func (q *heapQueue[T]) Len() int {
	return q.pq.Len()
}

// priorityQueue is a min-heap over items: comparator first, then seq.
type priorityQueue[T any] struct {
	items []*item[T]
	less  func(a, b T) bool
}

func (pq priorityQueue[T]) Len() int { return len(pq.items) }

func (pq priorityQueue[T]) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if pq.less(a.v, b.v) {
		return true
	}
	if pq.less(b.v, a.v) {
		return false
	}
	return a.seq < b.seq
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].index = i
	pq.items[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	it := x.(*item[T])
	it.index = len(pq.items)
	pq.items = append(pq.items, it)
}

func (pq *priorityQueue[T]) Pop() any {
	old := pq.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	pq.items = old[:n-1]
	return it
}
