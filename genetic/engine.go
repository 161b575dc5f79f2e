package genetic

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

// --- Algorithm Engine ---

// Engine evolves a population of template positions toward the best match
// It is not safe for concurrent use; drivers serialize calls
type Engine struct {
	config Config
	oracle Oracle
	rng    *rand.Rand

	crossoverCount int
	mutationCount  int

	population  []Gene
	generation  int
	evaluations uint64
}

// NewEngine validates the configuration and creates the initial population
// Every initial gene is sampled uniformly over the image and evaluated
func NewEngine(config Config, oracle Oracle, src rand.Source) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if oracle == nil {
		return nil, errors.WithStack(ErrNilOracle)
	}
	if src == nil {
		return nil, errors.WithStack(ErrNilSource)
	}

	e := &Engine{
		config:         config,
		oracle:         oracle,
		rng:            rand.New(src),
		crossoverCount: config.CrossoverCount(),
		mutationCount:  config.MutationCount(),
	}
	e.initializePopulation()

	return e, nil
}

// NewSeededEngine creates an engine driven by a PCG source with the given seed
func NewSeededEngine(config Config, oracle Oracle, seed uint64) (*Engine, error) {
	return NewEngine(config, oracle, rand.NewPCG(seed, seed))
}

// initializePopulation samples and evaluates the first generation
func (e *Engine) initializePopulation() {
	b := e.config.Bounds
	e.population = make([]Gene, e.config.PopulationSize)

	for i := range e.population {
		g := SampleGene(e.rng, b.ImageWidth, b.ImageHeight)
		g.Fitness = e.evaluate(g)
		e.population[i] = g
	}
}

// evaluate scores a gene and counts the evaluation
func (e *Engine) evaluate(g Gene) float64 {
	e.evaluations++
	return score(e.config.Bounds, e.oracle, g.X, g.Y)
}

// Advance runs one generation: selection, crossover, mutation, replacement
// The next population is built aside and swapped in at the end
func (e *Engine) Advance() {
	next := e.selectNext()

	for i := 0; i < e.crossoverCount; i++ {
		first := e.rng.IntN(len(next))
		second := e.rng.IntN(len(next))
		e.crossover(next, first, second)
	}

	for i := 0; i < e.mutationCount; i++ {
		slot := e.rng.IntN(len(next))
		axis, bit := randomMutation(e.rng)
		e.mutate(next, slot, axis, bit)
	}

	e.population = next
	e.generation++
}

// selectNext draws a full population from the roulette wheel with replacement
func (e *Engine) selectNext() []Gene {
	wheel := NewRouletteWheel(e.population)

	next := make([]Gene, len(e.population))
	for i := range next {
		next[i] = e.population[wheel.Pick(e.rng)]
	}
	return next
}

// crossover breeds slots first and second, keeping each parent unless its offspring is strictly fitter
func (e *Engine) crossover(next []Gene, first, second int) {
	a := Crossover(next[first], next[second])
	b := Crossover(next[second], next[first])

	a.Fitness = e.evaluate(a)
	b.Fitness = e.evaluate(b)

	if a.Fitness > next[first].Fitness {
		next[first] = a
	}
	if b.Fitness > next[second].Fitness {
		next[second] = b
	}
}

// mutate flips one bit of a slot in place and re-evaluates it unconditionally
func (e *Engine) mutate(next []Gene, slot int, axis Axis, bit uint) {
	g := Mutate(next[slot], axis, bit)
	g.Fitness = e.evaluate(g)
	next[slot] = g
}

// Best returns the fittest gene of the current population
func (e *Engine) Best() Gene {
	return BestOf(e.population)
}

// Population returns a copy of the current population
func (e *Engine) Population() []Gene {
	out := make([]Gene, len(e.population))
	copy(out, e.population)
	return out
}

// Generation returns the number of completed generations
func (e *Engine) Generation() int {
	return e.generation
}

// Evaluations returns the number of fitness evaluations performed, sentinel short-circuits included
func (e *Engine) Evaluations() uint64 {
	return e.evaluations
}

// Stats summarizes the current population
func (e *Engine) Stats() Stats {
	stats := calculateStats(e.population)
	stats.Generation = e.generation
	stats.Evaluations = e.evaluations
	return stats
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// CrossoverCount returns crossover operations per generation
func (e *Engine) CrossoverCount() int {
	return e.crossoverCount
}

// MutationCount returns mutations per generation
func (e *Engine) MutationCount() int {
	return e.mutationCount
}
