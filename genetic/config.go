package genetic

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/parameter"
)

// Config holds the engine parameters, fixed for the engine's lifetime
type Config struct {
	// PopulationSize is the number of genes maintained in each generation
	PopulationSize int
	// CrossoverRate is the fraction of the population crossed over per generation (0-1)
	CrossoverRate float64
	// MutationRate is the fraction of the population mutated per generation (0-1)
	MutationRate float64
	// Bounds is the search image and template geometry
	Bounds Bounds
}

// DefaultConfig returns the default rates for the given search geometry
func DefaultConfig(bounds Bounds) Config {
	return Config{
		PopulationSize: parameter.GAPopulationSize,
		CrossoverRate:  parameter.GACrossoverRate,
		MutationRate:   parameter.GAMutationRate,
		Bounds:         bounds,
	}
}

// CrossoverCount is the number of crossover operations per generation
func (c Config) CrossoverCount() int {
	return int(math.Floor(float64(c.PopulationSize) * c.CrossoverRate))
}

// MutationCount is the number of mutations per generation
func (c Config) MutationCount() int {
	return int(math.Floor(float64(c.PopulationSize) * c.MutationRate))
}

// Validate rejects configurations the engine cannot run against
func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "population size %d must be positive", c.PopulationSize)
	}
	if !validRate(c.CrossoverRate) {
		return errors.Wrapf(ErrInvalidConfig, "crossover rate %v outside [0,1]", c.CrossoverRate)
	}
	if !validRate(c.MutationRate) {
		return errors.Wrapf(ErrInvalidConfig, "mutation rate %v outside [0,1]", c.MutationRate)
	}

	b := c.Bounds
	if b.ImageWidth <= 0 || b.ImageHeight <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "image size %dx%d must be positive", b.ImageWidth, b.ImageHeight)
	}
	if b.ImageWidth > parameter.GAMaxCoordinate || b.ImageHeight > parameter.GAMaxCoordinate {
		return errors.Wrapf(ErrInvalidConfig, "image size %dx%d exceeds %d-bit gene coordinates",
			b.ImageWidth, b.ImageHeight, GeneBits)
	}
	if b.TemplateWidth <= 0 || b.TemplateHeight <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "template size %dx%d must be positive", b.TemplateWidth, b.TemplateHeight)
	}
	if b.TemplateWidth >= b.ImageWidth || b.TemplateHeight >= b.ImageHeight {
		return errors.Wrapf(ErrInvalidConfig, "template %dx%d must be smaller than image %dx%d",
			b.TemplateWidth, b.TemplateHeight, b.ImageWidth, b.ImageHeight)
	}
	return nil
}

func validRate(r float64) bool {
	return r >= 0 && r <= 1
}
