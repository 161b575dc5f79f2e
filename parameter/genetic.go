package parameter

// Genetic Algorithm - Engine Configuration
const (
	// GAPopulationSize is the number of genes in each population
	GAPopulationSize = 100

	// GACrossoverRate is the fraction of the population crossed over per generation (0.0-1.0)
	GACrossoverRate = 0.40

	// GAMutationRate is the fraction of the population mutated per generation (0.0-1.0)
	GAMutationRate = 0.03

	// GARateSliderMax is the upper bound of the percent sliders for crossover and mutation
	GARateSliderMax = 100

	// GAPopulationSliderMax is the upper bound of the population slider
	GAPopulationSliderMax = 1000

	// GASelectionScale converts a fitness share into selection pool entries (percent)
	GASelectionScale = 100.0

	// GAGeneBits is the width of each coordinate field in a gene
	GAGeneBits = 16

	// GAMaxCoordinate is the exclusive upper bound of a gene coordinate
	GAMaxCoordinate = 1 << GAGeneBits
)
