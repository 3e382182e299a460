package barsched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicySlices(t *testing.T) {
	const q = 100 * time.Millisecond

	tests := []struct {
		name         string
		kind         PolicyKind
		remaining    time.Duration
		wantRun      time.Duration
		wantFinished bool
	}{
		{"fcfs runs whole order", FCFS, 250 * time.Millisecond, 250 * time.Millisecond, true},
		{"sjf runs whole order", SJF, 250 * time.Millisecond, 250 * time.Millisecond, true},
		{"rr preempts long order", RR, 250 * time.Millisecond, q, false},
		{"rr finishes at quantum", RR, q, q, true},
		{"rr finishes short order", RR, 50 * time.Millisecond, 50 * time.Millisecond, true},
		{"rr zero order", RR, 0, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPolicy(tc.kind, q)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, p.Kind())

			run, finished := p.Slice(tc.remaining)
			assert.Equal(t, tc.wantRun, run)
			assert.Equal(t, tc.wantFinished, finished)
		})
	}
}

func TestRoundRobinSliceSequence(t *testing.T) {
	p, err := NewPolicy(RR, 100*time.Millisecond)
	require.NoError(t, err)

	remaining := 250 * time.Millisecond
	var slices []time.Duration
	for {
		run, finished := p.Slice(remaining)
		slices = append(slices, run)
		if finished {
			break
		}
		remaining -= run
	}
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 50 * time.Millisecond}, slices)
}

func TestNewPolicyErrors(t *testing.T) {
	_, err := NewPolicy(RR, 0)
	assert.Error(t, err)

	_, err = NewPolicy(PolicyKind(7), time.Second)
	assert.Error(t, err)
}

func TestParsePolicyKind(t *testing.T) {
	for in, want := range map[string]PolicyKind{
		"0": FCFS, "fcfs": FCFS, "FIFO": FCFS,
		"1": SJF, "sjf": SJF,
		"2": RR, " rr ": RR,
	} {
		got, err := ParsePolicyKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePolicyKind("lottery")
	assert.Error(t, err)
	assert.Equal(t, "unknown", PolicyKind(9).String())
}
