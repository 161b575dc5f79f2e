package genetic

import "math/rand/v2"

// SampleGene draws a position uniformly from [0, width) x [0, height)
// Fitness is left unset; the caller evaluates it
func SampleGene(rng *rand.Rand, width, height int) Gene {
	return Gene{
		X: uint16(rng.IntN(width)),
		Y: uint16(rng.IntN(height)),
	}
}

// Crossover takes x from a and y from b
// A gene is a 2D point, so single-point crossover swaps whole axes
func Crossover(a, b Gene) Gene {
	return Gene{X: a.X, Y: b.Y}
}

// FlipBit inverts one bit of a coordinate field
func FlipBit(v uint16, bit uint) uint16 {
	return v ^ (1 << (bit % GeneBits))
}

// Mutate returns g with one bit of the chosen axis flipped and fitness reset
func Mutate(g Gene, axis Axis, bit uint) Gene {
	switch axis {
	case AxisX:
		g.X = FlipBit(g.X, bit)
	default:
		g.Y = FlipBit(g.Y, bit)
	}
	g.Fitness = BadFitness
	return g
}

// randomMutation draws the axis and bit for one mutation
func randomMutation(rng *rand.Rand) (Axis, uint) {
	axis := Axis(rng.IntN(2))
	bit := uint(rng.IntN(GeneBits))
	return axis, bit
}
