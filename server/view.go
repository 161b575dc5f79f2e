package server

import (
	"time"

	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/raster"
	"github.com/lixenwraith/gamatch/session"
)

type gene struct {
	X       uint16  `json:"x"`
	Y       uint16  `json:"y"`
	Fitness float64 `json:"fitness"`
}

func newGene(g genetic.Gene) gene {
	return gene{X: g.X, Y: g.Y, Fitness: g.Fitness}
}

type summary struct {
	ID         string `json:"id"`
	Generation int    `json:"generation"`
	Best       gene   `json:"best"`
}

func newSummary(s *session.Session) summary {
	stats := s.Stats()
	return summary{ID: s.ID(), Generation: stats.Generation, Best: newGene(stats.Best)}
}

type settings struct {
	Population int     `json:"population"`
	Crossover  float64 `json:"crossover"`
	Mutation   float64 `json:"mutation"`
	Crossovers int     `json:"crossovers_per_generation"`
	Mutations  int     `json:"mutations_per_generation"`
}

type bounds struct {
	ImageWidth     int `json:"image_width"`
	ImageHeight    int `json:"image_height"`
	TemplateWidth  int `json:"template_width"`
	TemplateHeight int `json:"template_height"`
}

type statistics struct {
	Mean        float64 `json:"mean"`
	Worst       float64 `json:"worst"`
	Sentinels   int     `json:"sentinels"`
	Size        int     `json:"size"`
	Evaluations uint64  `json:"evaluations"`
}

type detail struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Region     string     `json:"region"`
	Mode       string     `json:"mode"`
	Seed       uint64     `json:"seed"`
	Bounds     bounds     `json:"bounds"`
	Config     settings   `json:"config"`
	Generation int        `json:"generation"`
	Best       gene       `json:"best"`
	Stats      statistics `json:"stats"`
}

func newDetail(s *session.Session) detail {
	cfg := s.Config()
	stats := s.Stats()
	b := cfg.Bounds

	return detail{
		ID:        s.ID(),
		CreatedAt: s.CreatedAt(),
		Region:    raster.FormatRect(s.Region()),
		Mode:      s.Mode().String(),
		Seed:      s.Seed(),
		Bounds: bounds{
			ImageWidth:     b.ImageWidth,
			ImageHeight:    b.ImageHeight,
			TemplateWidth:  b.TemplateWidth,
			TemplateHeight: b.TemplateHeight,
		},
		Config: settings{
			Population: cfg.PopulationSize,
			Crossover:  cfg.CrossoverRate,
			Mutation:   cfg.MutationRate,
			Crossovers: cfg.CrossoverCount(),
			Mutations:  cfg.MutationCount(),
		},
		Generation: stats.Generation,
		Best:       newGene(stats.Best),
		Stats: statistics{
			Mean:        stats.MeanScore,
			Worst:       stats.WorstScore,
			Sentinels:   stats.Sentinels,
			Size:        stats.Size,
			Evaluations: stats.Evaluations,
		},
	}
}
