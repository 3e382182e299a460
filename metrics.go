package barsched

import (
	"sync/atomic"
	"time"
)

// MetricsPolicy defines hooks used by the server to report queueing
// and execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {
	// IncSubmitted increments the submitted orders counter.
	IncSubmitted()

	// IncCompleted increments the completed orders counter.
	IncCompleted()

	// IncPreempted increments the round robin preemption counter.
	IncPreempted()

	// AddIdle adds to the time the server spent with nothing to do.
	AddIdle(d time.Duration)

	// SetQueued records the current number of waiting orders.
	SetQueued(n int)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	submitted atomic.Uint64
	completed atomic.Uint64
	preempted atomic.Uint64

	_ [40]byte // padding to avoid false sharing

	idle   atomic.Int64
	queued atomic.Int64
}

// Submitted returns the total number of submitted orders.
func (m *AtomicMetrics) Submitted() uint64 { return m.submitted.Load() }

// Completed returns the total number of completed orders.
func (m *AtomicMetrics) Completed() uint64 { return m.completed.Load() }

// Preempted returns the total number of preemptions.
func (m *AtomicMetrics) Preempted() uint64 { return m.preempted.Load() }

// Idle returns the accumulated idle time.
func (m *AtomicMetrics) Idle() time.Duration { return time.Duration(m.idle.Load()) }

// Queued returns the last recorded queue length.
func (m *AtomicMetrics) Queued() int64 { return m.queued.Load() }

func (m *AtomicMetrics) IncSubmitted()           { m.submitted.Add(1) }
func (m *AtomicMetrics) IncCompleted()           { m.completed.Add(1) }
func (m *AtomicMetrics) IncPreempted()           { m.preempted.Add(1) }
func (m *AtomicMetrics) AddIdle(d time.Duration) { m.idle.Add(int64(d)) }
func (m *AtomicMetrics) SetQueued(n int)         { m.queued.Store(int64(n)) }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncSubmitted()           {}
func (m *NoopMetrics) IncCompleted()           {}
func (m *NoopMetrics) IncPreempted()           {}
func (m *NoopMetrics) AddIdle(_ time.Duration) {}
func (m *NoopMetrics) SetQueued(_ int)         {}

//------------- TeeMetrics -----------------------------------

type teeMetrics []MetricsPolicy

// TeeMetrics forwards every update to each of ms in order.
func TeeMetrics(ms ...MetricsPolicy) MetricsPolicy { return teeMetrics(ms) }

func (t teeMetrics) IncSubmitted() {
	for _, m := range t {
		m.IncSubmitted()
	}
}

func (t teeMetrics) IncCompleted() {
	for _, m := range t {
		m.IncCompleted()
	}
}

func (t teeMetrics) IncPreempted() {
	for _, m := range t {
		m.IncPreempted()
	}
}

func (t teeMetrics) AddIdle(d time.Duration) {
	for _, m := range t {
		m.AddIdle(d)
	}
}

func (t teeMetrics) SetQueued(n int) {
	for _, m := range t {
		m.SetQueued(n)
	}
}
