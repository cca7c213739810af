// Package feed produces price ticks per symbol, either from a synthetic
// random walk or an external quote source with synthetic fallback.
package feed

import (
	"math/rand"
	"time"
)

// Walk parameters. The bias below 0.5 gives the walk a slight upward drift;
// the step fraction keeps any single move around one percent of the
// previous price.
const (
	walkBias    = 0.48
	walkMaxStep = 0.02
)

// Walk is the synthetic price model: a biased random walk with a hard floor
// at 10% of the pre-tick price so one step can never crash a symbol toward
// zero or negative territory.
type Walk struct {
	rng *rand.Rand
}

// NewWalk creates a Walk. A non-zero seed makes the draws reproducible; zero
// seeds from the clock.
func NewWalk(seed int64) *Walk {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Walk{rng: rand.New(rand.NewSource(seed))}
}

// Next advances the walk one step from the previous price.
func (w *Walk) Next(prev float64) float64 {
	delta := (w.rng.Float64() - walkBias) * prev * walkMaxStep
	next := prev + delta
	if floor := prev * 0.1; next < floor {
		next = floor
	}
	return next
}
