package barsched

import (
	"fmt"
	"time"

	"k8s.io/utils/clock"
)

const (
	// DefaultQuantum is large enough that round robin behaves as FCFS
	// for every drink on the menu.
	DefaultQuantum = 10 * time.Second
)

// Options configure a Server.
//
// Zero values are replaced with defaults in FillDefaults.
type Options struct {
	// Policy selects the scheduling discipline.
	Policy PolicyKind

	// SwitchDelay is paused after every order leaves the bar,
	// completed or preempted.
	SwitchDelay time.Duration

	// Quantum is the longest slice an order gets under RR.
	Quantum time.Duration

	// PinServer locks the server loop to one OS thread pinned to CPU
	// (Linux only), modeling a single processor.
	PinServer bool
	CPU       int

	// Metrics receives activity counters. Defaults to NoopMetrics.
	Metrics MetricsPolicy

	// Clock is the time source. Defaults to the real clock.
	Clock clock.Clock

	// OnInternalError is called for statistics invariant violations.
	OnInternalError func(error)
}

// DefaultOptions returns options for an FCFS run.
func DefaultOptions() Options {
	var o Options
	o.FillDefaults()
	return o
}

func (o *Options) FillDefaults() {
	if o.Quantum <= 0 {
		o.Quantum = DefaultQuantum
	}
	if o.SwitchDelay < 0 {
		o.SwitchDelay = 0
	}
	if o.CPU < 0 {
		o.CPU = 0
	}
	if o.Metrics == nil {
		o.Metrics = &NoopMetrics{}
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
}

// Validate reports options that cannot describe a run.
func (o Options) Validate() error {
	if !o.Policy.Valid() {
		return fmt.Errorf("barsched: unknown policy %d", int(o.Policy))
	}
	if o.Quantum <= 0 {
		return fmt.Errorf("barsched: quantum must be positive, got %s", o.Quantum)
	}
	return nil
}
