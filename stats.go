package barsched

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

var (
	// ErrUnknownOrder is returned when a statistics update names no record.
	ErrUnknownOrder = errors.New("stats: no record for order")

	// ErrNotServed is returned when completion is recorded for an order
	// that never reached first service.
	ErrNotServed = errors.New("stats: completion before first service")
)

// orderKey identifies the records of one patron's drink kind.
type orderKey struct {
	patronID int
	drink    string
}

// OrderStats is the timing record of one submitted order.
//
// Identity fields are fixed at submission. The timing fields are set at
// most once each, in order, and only through the Collector.
type OrderStats struct {
	PatronID      int
	Drink         string
	ExecutionTime time.Duration
	Arrival       time.Time

	firstService time.Time
	completion   time.Time
	served       bool
	completed    bool
}

// OrderRecord is an immutable copy of an OrderStats.
type OrderRecord struct {
	PatronID      int
	Drink         string
	Arrival       time.Time
	FirstService  time.Time
	Completion    time.Time
	ExecutionTime time.Duration
}

// Completed reports whether the order was fully prepared.
func (r OrderRecord) Completed() bool { return !r.Completion.IsZero() }

// Served reports whether the order reached the bar at least once.
func (r OrderRecord) Served() bool { return !r.FirstService.IsZero() }

// Turnaround is completion minus arrival.
func (r OrderRecord) Turnaround() time.Duration { return r.Completion.Sub(r.Arrival) }

// Waiting is turnaround minus execution time.
func (r OrderRecord) Waiting() time.Duration { return r.Turnaround() - r.ExecutionTime }

// Response is first service minus arrival.
func (r OrderRecord) Response() time.Duration { return r.FirstService.Sub(r.Arrival) }

// PatronStats aggregates the orders of one patron.
type PatronStats struct {
	PatronID        int
	FirstOrder      time.Time
	FirstCompletion time.Time
	LastCompletion  time.Time
	TotalWaiting    time.Duration
	DrinksCompleted int
}

// Response is the time from the patron's first order to its first drink.
func (p PatronStats) Response() time.Duration { return p.FirstCompletion.Sub(p.FirstOrder) }

// Turnaround is the time from the patron's first order to its last drink.
func (p PatronStats) Turnaround() time.Duration { return p.LastCompletion.Sub(p.FirstOrder) }

// Collector accumulates per-order and per-patron timing records plus the
// run aggregates. It is safe for concurrent use.
type Collector struct {
	clock clock.PassiveClock

	mu      sync.Mutex
	orders  []*OrderStats
	pending map[orderKey][]*OrderStats // uncompleted records, arrival order
	patrons map[int]*PatronStats

	start     time.Time
	end       time.Time
	idle      time.Duration
	completed int
}

// NewCollector returns an empty collector reading time from clk.
// A nil clock means the real clock.
func NewCollector(clk clock.PassiveClock) *Collector {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Collector{
		clock:   clk,
		pending: make(map[orderKey][]*OrderStats),
		patrons: make(map[int]*PatronStats),
	}
}

// OnSubmit creates the record for o with arrival time now.
func (c *Collector) OnSubmit(o *Order) *OrderStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &OrderStats{
		PatronID:      o.PatronID,
		Drink:         o.Drink,
		ExecutionTime: o.ExecutionTime,
		Arrival:       c.clock.Now(),
	}
	c.orders = append(c.orders, s)
	k := orderKey{o.PatronID, o.Drink}
	c.pending[k] = append(c.pending[k], s)
	return s
}

// OnFirstService stamps the first service time of h and adds the wait
// since arrival to the patron's total. It reports false if h was
// already served.
func (c *Collector) OnFirstService(h *OrderStats) (bool, error) {
	if h == nil {
		return false, ErrUnknownOrder
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if h.served {
		return false, nil
	}
	now := c.clock.Now()
	h.firstService = now
	h.served = true

	p := c.patronLocked(h.PatronID)
	if p.FirstOrder.IsZero() || h.Arrival.Before(p.FirstOrder) {
		p.FirstOrder = h.Arrival
	}
	p.TotalWaiting += now.Sub(h.Arrival)
	return true, nil
}

// OnCompletion stamps the completion time of h and updates the run and
// patron aggregates. It reports false if h was already completed.
func (c *Collector) OnCompletion(h *OrderStats) (bool, error) {
	if h == nil {
		return false, ErrUnknownOrder
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if h.completed {
		return false, nil
	}
	if !h.served {
		return false, fmt.Errorf("%w: patron %d %s", ErrNotServed, h.PatronID, h.Drink)
	}
	now := c.clock.Now()
	h.completion = now
	h.completed = true
	c.completed++
	c.removePendingLocked(h)

	p := c.patronLocked(h.PatronID)
	if p.FirstCompletion.IsZero() {
		p.FirstCompletion = now
	}
	if now.After(p.LastCompletion) {
		p.LastCompletion = now
	}
	p.DrinksCompleted++
	return true, nil
}

// Lookup returns the earliest-arrived uncompleted record for the given
// patron and drink, or nil.
func (c *Collector) Lookup(patronID int, drink string) *OrderStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l := c.pending[orderKey{patronID, drink}]; len(l) > 0 {
		return l[0]
	}
	return nil
}

// Record returns a copy of h's current state.
func (c *Collector) Record(h *OrderStats) OrderRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return recordOf(h)
}

// MarkStart sets the timing baseline of the run.
func (c *Collector) MarkStart() {
	c.mu.Lock()
	c.start = c.clock.Now()
	c.mu.Unlock()
}

// MarkEnd closes the run.
func (c *Collector) MarkEnd() {
	c.mu.Lock()
	c.end = c.clock.Now()
	c.mu.Unlock()
}

// AddIdle adds d to the total idle time.
func (c *Collector) AddIdle(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.idle += d
	c.mu.Unlock()
}

// Snapshot copies the collected statistics into a Report. Completed
// orders are listed in arrival order, patrons with at least one
// completed drink by ascending id. If the run has not ended, elapsed
// time is measured up to now.
func (c *Collector) Snapshot() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Report{
		Idle:      c.idle,
		Completed: c.completed,
	}
	if !c.start.IsZero() {
		end := c.end
		if end.IsZero() {
			end = c.clock.Now()
		}
		r.Elapsed = end.Sub(c.start)
	}

	for _, s := range c.orders {
		if s.completed {
			r.Orders = append(r.Orders, recordOf(s))
		}
	}
	for _, p := range c.patrons {
		if p.DrinksCompleted > 0 {
			r.Patrons = append(r.Patrons, *p)
		}
	}
	sort.Slice(r.Patrons, func(i, j int) bool {
		return r.Patrons[i].PatronID < r.Patrons[j].PatronID
	})
	return r
}

func (c *Collector) patronLocked(id int) *PatronStats {
	p, ok := c.patrons[id]
	if !ok {
		p = &PatronStats{PatronID: id}
		c.patrons[id] = p
	}
	return p
}

func (c *Collector) removePendingLocked(h *OrderStats) {
	k := orderKey{h.PatronID, h.Drink}
	l := c.pending[k]
	for i, s := range l {
		if s == h {
			l = append(l[:i], l[i+1:]...)
			break
		}
	}
	if len(l) == 0 {
		delete(c.pending, k)
		return
	}
	c.pending[k] = l
}

func recordOf(s *OrderStats) OrderRecord {
	return OrderRecord{
		PatronID:      s.PatronID,
		Drink:         s.Drink,
		Arrival:       s.Arrival,
		FirstService:  s.firstService,
		Completion:    s.completion,
		ExecutionTime: s.ExecutionTime,
	}
}
