package barsched

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Order is a single drink requested by a patron.
//
// The patron owns an Order until it is submitted. From then on the
// server owns the remaining preparation time; the patron only waits
// on Done.
type Order struct {
	ID            uuid.UUID
	PatronID      int
	Drink         string
	ExecutionTime time.Duration

	// remaining is decremented by the server under round robin.
	remaining time.Duration

	// stats links the order to the record created at submission.
	stats *OrderStats

	done     chan struct{}
	doneOnce sync.Once
}

// NewOrder creates an order for patronID that takes exec to prepare.
// Negative durations are treated as zero.
func NewOrder(patronID int, drink string, exec time.Duration) *Order {
	if exec < 0 {
		exec = 0
	}
	return &Order{
		ID:            uuid.New(),
		PatronID:      patronID,
		Drink:         drink,
		ExecutionTime: exec,
		remaining:     exec,
		done:          make(chan struct{}),
	}
}

// Done is closed once the order has been fully prepared.
func (o *Order) Done() <-chan struct{} { return o.done }

// Remaining returns the preparation time still owed to the order.
// Only meaningful before submission or after Done is closed.
func (o *Order) Remaining() time.Duration { return o.remaining }

// Stats returns the statistics record bound at submission, or nil.
func (o *Order) Stats() *OrderStats { return o.stats }

func (o *Order) markDone() {
	o.doneOnce.Do(func() { close(o.done) })
}

func (o *Order) String() string {
	return fmt.Sprintf("%d: %s", o.PatronID, o.Drink)
}
