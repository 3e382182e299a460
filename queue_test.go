package barsched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapQueue_ShortestFirstStable(t *testing.T) {
	q := sjfPolicy{}.newQueue()

	durations := []time.Duration{50, 10, 30, 10, 50, 30}
	orders := make([]*Order, len(durations))
	for i, d := range durations {
		orders[i] = NewOrder(i, "drink", d*time.Millisecond)
		q.Push(orders[i])
	}
	require.Equal(t, len(durations), q.Len())

	// equal durations leave in push order
	want := []*Order{orders[1], orders[3], orders[2], orders[5], orders[0], orders[4]}
	for i, w := range want {
		got, ok := q.Pop()
		require.True(t, ok, "pop %d", i)
		assert.Same(t, w, got, "pop %d", i)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestHeapQueue_InterleavedPushPop(t *testing.T) {
	q := newHeapQueue(func(a, b int) bool { return a < b })
	q.Push(5)
	q.Push(1)
	v, _ := q.Pop()
	assert.Equal(t, 1, v)
	q.Push(3)
	q.Push(0)
	for _, want := range []int{0, 3, 5} {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	assert.Zero(t, q.Len())
}

func TestOrderQueue_TakeBlocksUntilSubmit(t *testing.T) {
	oq := newOrderQueue(newFifoQueue[*Order](4))

	got := make(chan *Order, 1)
	go func() {
		o, err := oq.Take(context.Background())
		if err == nil {
			got <- o
		}
	}()

	select {
	case <-got:
		t.Fatal("Take returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}

	o := NewOrder(1, "Beer", 0)
	require.True(t, oq.Submit(o))

	select {
	case g := <-got:
		assert.Same(t, o, g)
	case <-time.After(time.Second):
		t.Fatal("Take did not wake up")
	}
}

func TestOrderQueue_TakeInterruptedByContext(t *testing.T) {
	oq := newOrderQueue(newFifoQueue[*Order](4))
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := oq.Take(ctx)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Take was not interrupted")
	}
}

func TestOrderQueue_Close(t *testing.T) {
	oq := newOrderQueue(newFifoQueue[*Order](4))
	first := NewOrder(1, "Beer", 0)
	require.True(t, oq.Submit(first))

	oq.Close()
	assert.False(t, oq.Submit(NewOrder(2, "Cider", 0)), "submit after close must be rejected")

	// queued orders survive close
	o, err := oq.Take(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, o)

	_, err = oq.Take(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestOrderQueue_ConcurrentProducers(t *testing.T) {
	oq := newOrderQueue(newFifoQueue[*Order](4))

	const producers = 50
	const perProducer = 200

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for range perProducer {
				oq.Submit(NewOrder(id, "Beer", 0))
			}
		}(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seen := make(map[*Order]bool, producers*perProducer)
	perPatron := make(map[int]int)
	for i := 0; i < producers*perProducer; i++ {
		o, err := oq.Take(ctx)
		require.NoError(t, err)
		require.False(t, seen[o], "order taken twice")
		seen[o] = true
		perPatron[o.PatronID]++
	}
	wg.Wait()

	assert.Len(t, seen, producers*perProducer)
	for id, n := range perPatron {
		assert.Equal(t, perProducer, n, "patron %d", id)
	}
	assert.Zero(t, oq.Len())
}
