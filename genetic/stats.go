package genetic

// Stats contains statistical information about a population
type Stats struct {
	Generation  int
	Best        Gene
	WorstScore  float64
	MeanScore   float64
	Sentinels   int // genes sitting at BadFitness
	Size        int
	Evaluations uint64
}

// BestOf returns the gene with the highest fitness, first one wins ties
// The comparison baseline is BadFitness, so an all-sentinel population yields its first gene
func BestOf(population []Gene) Gene {
	if len(population) == 0 {
		return Gene{Fitness: BadFitness}
	}

	best := Gene{X: population[0].X, Y: population[0].Y, Fitness: BadFitness}
	for _, g := range population {
		if g.Fitness > best.Fitness {
			best = g
		}
	}
	return best
}

// calculateStats computes statistical measures for a population
func calculateStats(population []Gene) Stats {
	if len(population) == 0 {
		return Stats{}
	}

	stats := Stats{
		Best:       BestOf(population),
		WorstScore: population[0].Fitness,
		Size:       len(population),
	}

	total := 0.0
	for _, g := range population {
		if g.Fitness < stats.WorstScore {
			stats.WorstScore = g.Fitness
		}
		if g.Fitness <= BadFitness {
			stats.Sentinels++
		}
		total += g.Fitness
	}
	stats.MeanScore = total / float64(len(population))

	return stats
}
