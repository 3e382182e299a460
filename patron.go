package barsched

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
)

const (
	DefaultDrinksPerPatron = 5
	DefaultMaxThink        = 500 * time.Millisecond
)

// Orderer accepts orders. *Server implements it.
type Orderer interface {
	Submit(o *Order) error
}

// Patron orders drinks one at a time, thinking for a random while
// before each order and waiting for every drink before the next.
type Patron struct {
	ID       int
	Drinks   int
	MaxThink time.Duration
}

// Run waits on the start barrier and then places p.Drinks orders from
// menu. It returns early with ctx's error when ctx is cancelled, or with
// the submission error when the server refuses an order.
func (p Patron) Run(ctx context.Context, bar Orderer, barrier *StartBarrier, menu *Menu, rng *rand.Rand) error {
	logger := lg.FromContext(ctx).With(lg.Int("patron", p.ID))
	if p.Drinks <= 0 {
		p.Drinks = DefaultDrinksPerPatron
	}
	if barrier != nil {
		if err := barrier.Await(ctx); err != nil {
			return err
		}
	}

	for i := 0; i < p.Drinks; i++ {
		if p.MaxThink > 0 {
			think := time.Duration(rng.Int63n(int64(p.MaxThink)))
			timer := time.NewTimer(think)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		o := menu.RandomOrder(p.ID, rng)
		if err := bar.Submit(o); err != nil {
			return fmt.Errorf("patron %d: %w", p.ID, err)
		}
		logger.Info("Patron ordered", lg.String("drink", o.Drink))

		select {
		case <-o.Done():
			logger.Info("Patron got drink", lg.String("drink", o.Drink))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	logger.Info("Patron leaving")
	return nil
}
