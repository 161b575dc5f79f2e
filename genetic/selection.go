// Package genetic searches an image for the position that best matches a template
// using a fitness-proportionate genetic algorithm over 16-bit (x, y) genes
//
// The engine owns a fixed-size population and advances it one generation per call:
// roulette selection, axis-swap crossover with conditional replacement, single-bit
// mutation in place. Fitness comes from an Oracle; positions outside Bounds never reach
// the oracle and score BadFitness. All randomness flows from the injected source.
package genetic

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/lixenwraith/gamatch/parameter"
)

// RouletteWheel implements fitness-proportionate selection
// Each gene owns floor(fitness/total*100) consecutive slots of the wheel
type RouletteWheel struct {
	// cumulative[i] is the number of slots owned by genes 0..i
	cumulative []int
	total      int
}

// NewRouletteWheel builds the wheel for a population
func NewRouletteWheel(population []Gene) RouletteWheel {
	weights := SelectionWeights(population)

	cumulative := make([]int, len(weights))
	total := 0
	for i, w := range weights {
		total += w
		cumulative[i] = total
	}

	return RouletteWheel{cumulative: cumulative, total: total}
}

// SelectionWeights returns the number of selection slots for each gene
// A zero or non-finite total fitness yields all-zero weights
func SelectionWeights(population []Gene) []int {
	weights := make([]int, len(population))

	sum := 0.0
	for _, g := range population {
		sum += g.Fitness
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return weights
	}

	for i, g := range population {
		share := g.Fitness / sum * parameter.GASelectionScale
		weights[i] = int(math.Floor(share))
	}
	return weights
}

// Size returns the number of slots on the wheel
func (w RouletteWheel) Size() int {
	return w.total
}

// Degenerate reports whether the wheel is empty and selection falls back to uniform
func (w RouletteWheel) Degenerate() bool {
	return w.total == 0
}

// Pick returns a population index
// Degenerate wheels pick uniformly so an all-sentinel population still evolves
func (w RouletteWheel) Pick(rng *rand.Rand) int {
	if w.total == 0 {
		return rng.IntN(len(w.cumulative))
	}
	return w.index(rng.IntN(w.total))
}

// index maps a slot in [0, total) to the gene owning it
func (w RouletteWheel) index(slot int) int {
	return sort.Search(len(w.cumulative), func(i int) bool {
		return w.cumulative[i] > slot
	})
}
