package barsched

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"k8s.io/utils/clock"
)

var (
	// ErrServerStopped is returned by Submit once stop was requested.
	// The order is not scheduled.
	ErrServerStopped = errors.New("server: stopped, order not scheduled")

	// ErrNotStopped is returned by Report while the run loop is still running.
	ErrNotStopped = errors.New("server: run loop has not stopped")

	// ErrAlreadySubmitted is returned when an order is submitted twice.
	ErrAlreadySubmitted = errors.New("server: order already submitted")
)

// ServerState is the phase of the server's run loop.
type ServerState int32

const (
	StateAwaitingStart ServerState = iota
	StateIdle
	StateExecuting
	StateStopped
)

func (s ServerState) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting-start"
	case StateIdle:
		return "idle"
	case StateExecuting:
		return "executing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Server is the single bartender. It drains one queue under one policy
// and records the timing of every order it prepares.
//
// Submit may be called from any number of goroutines. The run loop is
// the only consumer of the queue and the only writer of statistics
// after submission.
type Server struct {
	opts    Options
	policy  Policy
	queue   *orderQueue
	stats   *Collector
	barrier *StartBarrier
	clock   clock.Clock
	metrics MetricsPolicy

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	stopping  atomic.Bool
	done      chan struct{}

	state      atomic.Int32
	interrupts atomic.Int64
}

// NewServer builds a server for opts. The run loop waits on barrier
// before taking its timing baseline; a nil barrier starts immediately.
// ctx carries the logger and bounds the server's lifetime.
func NewServer(ctx context.Context, opts Options, barrier *StartBarrier) (*Server, error) {
	opts.FillDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	policy, err := NewPolicy(opts.Policy, opts.Quantum)
	if err != nil {
		return nil, err
	}
	if barrier == nil {
		barrier = NewStartBarrier(0)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Server{
		opts:    opts,
		policy:  policy,
		queue:   newOrderQueue(policy.newQueue()),
		stats:   NewCollector(opts.Clock),
		barrier: barrier,
		clock:   opts.Clock,
		metrics: opts.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.state.Store(int32(StateAwaitingStart))
	return s, nil
}

// Submit records the arrival of o and queues it.
//
// Submissions racing with RequestStop either get ErrServerStopped or
// are queued but never served; in the latter case the arrival record is
// kept but, never completing, does not appear in the report.
func (s *Server) Submit(o *Order) error {
	if o == nil {
		return ErrNilOrder
	}
	if s.stopping.Load() {
		return ErrServerStopped
	}
	if o.stats != nil {
		return ErrAlreadySubmitted
	}

	o.stats = s.stats.OnSubmit(o)
	if !s.queue.Submit(o) {
		return ErrServerStopped
	}
	s.metrics.IncSubmitted()
	s.metrics.SetQueued(s.queue.Len())
	lg.FromContext(s.ctx).Info("Order submitted", lg.String("order", o.String()), lg.String("id", o.ID.String()))
	return nil
}

// Start launches the run loop. Calls after the first are no-ops.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

// RequestStop asks the run loop to exit. An order being prepared is
// finished first; a blocked wait for the next order is interrupted.
func (s *Server) RequestStop() {
	s.stopOnce.Do(func() {
		s.stopping.Store(true)
		s.queue.Close()
		s.cancel()
	})
}

// AwaitStopped blocks until the run loop has exited or ctx is done.
// The run loop only exits after Start and RequestStop.
func (s *Server) AwaitStopped(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stopped is closed when the run loop has exited.
func (s *Server) Stopped() <-chan struct{} { return s.done }

// Report returns the final statistics. It fails with ErrNotStopped
// until the run loop has exited.
func (s *Server) Report() (Report, error) {
	select {
	case <-s.done:
	default:
		return Report{}, ErrNotStopped
	}
	r := s.stats.Snapshot()
	r.Policy = s.policy.Kind()
	r.SwitchDelay = s.opts.SwitchDelay
	r.Quantum = s.opts.Quantum
	r.Interrupts = int(s.interrupts.Load())
	return r, nil
}

// Stats exposes the live collector. Reads during a run see a
// consistent but incomplete picture.
func (s *Server) Stats() *Collector { return s.stats }

// State returns the current phase of the run loop.
func (s *Server) State() ServerState { return ServerState(s.state.Load()) }

// Interrupts returns how many round robin slices ended in preemption.
func (s *Server) Interrupts() int { return int(s.interrupts.Load()) }

// QueueLength returns the number of orders waiting.
func (s *Server) QueueLength() int { return s.queue.Len() }

func (s *Server) setState(st ServerState) { s.state.Store(int32(st)) }

// run is the bartender loop:
//   - waits on the start barrier, then takes the timing baseline
//   - blocks for the next order, counting the wait as idle time
//   - prepares it for the slice the policy grants
//   - completes it or puts it back on the queue
//   - pauses for the switch delay
//
// Stop is observed only between orders.
func (s *Server) run() {
	defer close(s.done)
	logger := lg.FromContext(s.ctx).With(lg.String("policy", s.policy.Kind().String()))

	if s.opts.PinServer {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := PinToCPU(s.opts.CPU); err != nil {
			logger.Warn("cpu pinning failed", lg.Int("cpu", s.opts.CPU), lg.Any("error", err))
		}
	}

	if err := s.barrier.Await(s.ctx); err != nil {
		s.setState(StateStopped)
		logger.Info("Barman stopped before start", lg.Any("reason", err))
		return
	}
	s.stats.MarkStart()
	s.setState(StateIdle)
	logger.Info("Barman started", lg.String("quantum", s.opts.Quantum.String()), lg.String("switch", s.opts.SwitchDelay.String()))

	for s.ctx.Err() == nil {
		idleFrom := s.clock.Now()
		o, err := s.queue.Take(s.ctx)
		idle := s.clock.Since(idleFrom)
		s.stats.AddIdle(idle)
		s.metrics.AddIdle(idle)
		if err != nil {
			break
		}
		s.metrics.SetQueued(s.queue.Len())

		s.setState(StateExecuting)
		s.serve(o)
		s.pause(s.opts.SwitchDelay)
		s.setState(StateIdle)
	}

	s.stats.MarkEnd()
	s.setState(StateStopped)
	logger.Info("Barman is packing up", lg.Int("interrupts", s.Interrupts()))
}

// serve runs one slice of o and settles it.
func (s *Server) serve(o *Order) {
	log := lg.FromContext(s.ctx).With(
		lg.String("policy", s.policy.Kind().String()),
		lg.String("order", o.String()),
		lg.String("id", o.ID.String()),
	)
	h := o.stats
	if h == nil {
		// orders queued without Submit have no link; match by identity
		if h = s.stats.Lookup(o.PatronID, o.Drink); h != nil {
			o.stats = h
		}
	}

	if first, err := s.stats.OnFirstService(h); err != nil {
		s.reportInternalError(err)
	} else if first {
		log.Info("Barman preparing drink")
	} else {
		log.Info("Barman resuming drink", lg.String("left", o.remaining.String()))
	}

	run, finished := s.policy.Slice(o.remaining)
	s.pause(run)

	if finished {
		o.remaining = 0
		if h != nil {
			if _, err := s.stats.OnCompletion(h); err != nil {
				s.reportInternalError(err)
			}
		}
		s.metrics.IncCompleted()
		log.Info("Barman has made drink")
		o.markDone()
		return
	}

	o.remaining -= run
	s.interrupts.Add(1)
	s.metrics.IncPreempted()
	log.Info("Barman interrupted drink", lg.String("left", o.remaining.String()))
	if !s.queue.Submit(o) {
		log.Warn("interrupted drink abandoned at shutdown")
		return
	}
	s.metrics.SetQueued(s.queue.Len())
}

// pause waits for d without spinning. It is not interrupted by stop:
// simulated work always runs to the end.
func (s *Server) pause(d time.Duration) {
	if d <= 0 {
		return
	}
	<-s.clock.After(d)
}
