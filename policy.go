package barsched

import (
	"fmt"
	"strings"
	"time"
)

// PolicyKind selects the scheduling discipline of a run.
//
// The numeric values match the simulation's command-line selector.
type PolicyKind int

const (
	// FCFS serves orders first-come-first-served.
	FCFS PolicyKind = iota
	// SJF serves the shortest pending order first, without preemption.
	SJF
	// RR serves orders in arrival order for at most one quantum at a time.
	RR
)

func (k PolicyKind) String() string {
	switch k {
	case FCFS:
		return "fcfs"
	case SJF:
		return "sjf"
	case RR:
		return "rr"
	default:
		return "unknown"
	}
}

// Valid reports whether k names a known policy.
func (k PolicyKind) Valid() bool { return k >= FCFS && k <= RR }

// ParsePolicyKind accepts either the numeric selector or the short name.
func ParsePolicyKind(s string) (PolicyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "fcfs", "fifo":
		return FCFS, nil
	case "1", "sjf":
		return SJF, nil
	case "2", "rr", "round-robin":
		return RR, nil
	}
	return 0, fmt.Errorf("barsched: unknown policy %q", s)
}

// Policy is the scheduling discipline the server runs.
//
// The server holds exactly one Policy for its lifetime and drives it
// through these hooks; it never inspects which policy it has.
type Policy interface {
	Kind() PolicyKind

	// newQueue builds the ordering used for pending orders.
	newQueue() schedQueue[*Order]

	// Slice returns how long an order with the given remaining time
	// runs on this dispatch, and whether it is finished afterwards.
	// An unfinished order goes back to the queue.
	Slice(remaining time.Duration) (run time.Duration, finished bool)
}

// NewPolicy builds the policy for kind. quantum is only used by RR and
// must be positive there.
func NewPolicy(kind PolicyKind, quantum time.Duration) (Policy, error) {
	switch kind {
	case FCFS:
		return fcfsPolicy{}, nil
	case SJF:
		return sjfPolicy{}, nil
	case RR:
		if quantum <= 0 {
			return nil, fmt.Errorf("barsched: round robin needs a positive quantum, got %s", quantum)
		}
		return rrPolicy{quantum: quantum}, nil
	}
	return nil, fmt.Errorf("barsched: unknown policy %d", int(kind))
}

type fcfsPolicy struct{}

func (fcfsPolicy) Kind() PolicyKind { return FCFS }

func (fcfsPolicy) newQueue() schedQueue[*Order] {
	return newFifoQueue[*Order](initialFifoCapacity)
}

func (fcfsPolicy) Slice(remaining time.Duration) (time.Duration, bool) {
	return remaining, true
}

type sjfPolicy struct{}

func (sjfPolicy) Kind() PolicyKind { return SJF }

func (sjfPolicy) newQueue() schedQueue[*Order] {
	return newHeapQueue(func(a, b *Order) bool {
		return a.ExecutionTime < b.ExecutionTime
	})
}

func (sjfPolicy) Slice(remaining time.Duration) (time.Duration, bool) {
	return remaining, true
}

type rrPolicy struct {
	quantum time.Duration
}

func (rrPolicy) Kind() PolicyKind { return RR }

func (rrPolicy) newQueue() schedQueue[*Order] {
	return newFifoQueue[*Order](initialFifoCapacity)
}

func (p rrPolicy) Slice(remaining time.Duration) (time.Duration, bool) {
	if remaining <= p.quantum {
		return remaining, true
	}
	return p.quantum, false
}
