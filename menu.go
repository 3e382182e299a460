package barsched

import (
	"math/rand"
	"time"
)

// Drink is an item on the menu with its fixed preparation time.
type Drink struct {
	Name string
	Prep time.Duration
}

// DefaultDrinks is the bar's menu.
var DefaultDrinks = []Drink{
	{"Beer", 30 * time.Millisecond},
	{"Cider", 40 * time.Millisecond},
	{"Red Wine", 50 * time.Millisecond},
	{"Whiskey", 60 * time.Millisecond},
	{"Gin and Tonic", 80 * time.Millisecond},
	{"Martini", 120 * time.Millisecond},
	{"Cosmopolitan", 130 * time.Millisecond},
	{"Mojito", 150 * time.Millisecond},
	{"Pina Colada", 200 * time.Millisecond},
	{"Long Island", 250 * time.Millisecond},
}

// Menu hands out random drinks. Every patron draws from its own source
// derived from the menu seed, so a given seed yields the same drinks and
// think times for each patron no matter how goroutines interleave.
type Menu struct {
	Drinks []Drink
	seed   int64
}

// NewMenu creates a menu over DefaultDrinks. A zero seed picks a
// non-deterministic one.
func NewMenu(seed int64) *Menu {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Menu{Drinks: DefaultDrinks, seed: seed}
}

// Seed returns the effective seed.
func (m *Menu) Seed() int64 { return m.seed }

// ForPatron returns the random source of patron id.
func (m *Menu) ForPatron(id int) *rand.Rand {
	return rand.New(rand.NewSource(m.seed + int64(id)*7919))
}

// RandomOrder builds an order for a random drink drawn from rng.
func (m *Menu) RandomOrder(patronID int, rng *rand.Rand) *Order {
	d := m.Drinks[rng.Intn(len(m.Drinks))]
	return NewOrder(patronID, d.Name, d.Prep)
}
