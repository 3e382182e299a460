//go:build !debug

package barsched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_OrderWithoutStatsIsReported(t *testing.T) {
	var (
		mu   sync.Mutex
		errs []error
	)
	opts := Options{
		OnInternalError: func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		},
	}
	s, err := NewServer(context.Background(), opts, nil)
	require.NoError(t, err)
	defer s.RequestStop()

	// bypass Submit so no record is bound
	o := NewOrder(1, "Ghost", time.Millisecond)
	require.True(t, s.queue.Submit(o))
	s.Start()

	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("order without stats was not served")
	}

	s.RequestStop()
	require.NoError(t, s.AwaitStopped(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrUnknownOrder)

	r, err := s.Report()
	require.NoError(t, err)
	assert.Zero(t, r.Completed, "unrecorded orders are not counted")
}

func TestServer_UnlinkedOrderResolvedByLookup(t *testing.T) {
	var internal int
	s, err := NewServer(context.Background(), Options{OnInternalError: func(error) { internal++ }}, nil)
	require.NoError(t, err)
	defer s.RequestStop()

	o := NewOrder(3, "Cider", time.Millisecond)
	h := s.stats.OnSubmit(o)
	require.True(t, s.queue.Submit(o))
	s.Start()

	select {
	case <-o.Done():
	case <-time.After(time.Second):
		t.Fatal("order was not served")
	}
	s.RequestStop()
	require.NoError(t, s.AwaitStopped(context.Background()))

	assert.Zero(t, internal)
	assert.Same(t, h, o.Stats())
	r, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Completed)
}

func TestServer_SubmitBindsStats(t *testing.T) {
	s, err := NewServer(context.Background(), Options{}, nil)
	require.NoError(t, err)
	defer s.RequestStop()

	o := NewOrder(4, "Whiskey", 0)
	require.NoError(t, s.Submit(o))
	require.NotNil(t, o.Stats())
	assert.Same(t, o.Stats(), s.Stats().Lookup(4, "Whiskey"))
	assert.Equal(t, 1, s.QueueLength())
}

func TestNewServer_RejectsBadOptions(t *testing.T) {
	_, err := NewServer(context.Background(), Options{Policy: PolicyKind(5)}, nil)
	assert.Error(t, err)
}
