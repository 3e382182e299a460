package barsched_test

import (
	"context"
	"runtime"
	"sort"
	"testing"
	"time"

	bs "github.com/azargarov/barsched"
)

var policies = []bs.PolicyKind{
	bs.FCFS,
	bs.SJF,
	bs.RR,
}

func newTestServer(t *testing.T, opts bs.Options, barrier *bs.StartBarrier) *bs.Server {
	t.Helper()

	s, err := bs.NewServer(context.Background(), opts, barrier)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() {
		s.RequestStop()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.AwaitStopped(ctx)
	})
	return s
}

// stopAndReport stops s and returns its final report.
func stopAndReport(t *testing.T, s *bs.Server) bs.Report {
	t.Helper()

	s.RequestStop()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.AwaitStopped(ctx); err != nil {
		t.Fatalf("server did not stop: %v", err)
	}
	r, err := s.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	return r
}

func waitDone(t *testing.T, timeout time.Duration, orders ...*bs.Order) {
	t.Helper()

	deadline := time.After(timeout)
	for _, o := range orders {
		select {
		case <-o.Done():
		case <-deadline:
			t.Fatalf("order %s not done before timeout", o)
		}
	}
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
	}
	t.Fatal("condition not satisfied before timeout")
}

// completionOrder returns patron ids sorted by completion time.
func completionOrder(r bs.Report) []int {
	recs := append([]bs.OrderRecord(nil), r.Orders...)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Completion.Before(recs[j].Completion)
	})
	ids := make([]int, len(recs))
	for i, rec := range recs {
		ids[i] = rec.PatronID
	}
	return ids
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
