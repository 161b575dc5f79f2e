package persistence

import (
	"time"

	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/tracking"
)

// Report is the serializable summary of one search run
type Report struct {
	RunID       string    `toml:"run_id"`
	CreatedAt   time.Time `toml:"created_at"`
	Image       string    `toml:"image"`
	Region      string    `toml:"region"`
	Mode        string    `toml:"mode"`
	Scale       int       `toml:"scale"`
	Seed        uint64    `toml:"seed"`
	Config      ConfigDTO `toml:"config"`
	Generations int       `toml:"generations"`
	Evaluations uint64    `toml:"evaluations"`
	Best        GeneDTO   `toml:"best"`
	History     []RowDTO  `toml:"history"`
	Population  []GeneDTO `toml:"population,omitempty"`
}

// ConfigDTO is a serializable engine configuration
type ConfigDTO struct {
	PopulationSize int     `toml:"population_size"`
	CrossoverRate  float64 `toml:"crossover_rate"`
	MutationRate   float64 `toml:"mutation_rate"`
	ImageWidth     int     `toml:"image_width"`
	ImageHeight    int     `toml:"image_height"`
	TemplateWidth  int     `toml:"template_width"`
	TemplateHeight int     `toml:"template_height"`
}

// GeneDTO is a serializable gene
type GeneDTO struct {
	X       uint16  `toml:"x"`
	Y       uint16  `toml:"y"`
	Fitness float64 `toml:"fitness"`
}

// RowDTO is a serializable history row
type RowDTO struct {
	Generation  int     `toml:"generation"`
	BestX       uint16  `toml:"best_x"`
	BestY       uint16  `toml:"best_y"`
	Best        float64 `toml:"best"`
	Mean        float64 `toml:"mean"`
	Worst       float64 `toml:"worst"`
	Sentinels   int     `toml:"sentinels"`
	Evaluations uint64  `toml:"evaluations"`
}

// FromConfig converts an engine configuration to DTO
func FromConfig(c genetic.Config) ConfigDTO {
	return ConfigDTO{
		PopulationSize: c.PopulationSize,
		CrossoverRate:  c.CrossoverRate,
		MutationRate:   c.MutationRate,
		ImageWidth:     c.Bounds.ImageWidth,
		ImageHeight:    c.Bounds.ImageHeight,
		TemplateWidth:  c.Bounds.TemplateWidth,
		TemplateHeight: c.Bounds.TemplateHeight,
	}
}

// ToConfig converts the DTO back to an engine configuration
func (dto ConfigDTO) ToConfig() genetic.Config {
	return genetic.Config{
		PopulationSize: dto.PopulationSize,
		CrossoverRate:  dto.CrossoverRate,
		MutationRate:   dto.MutationRate,
		Bounds: genetic.Bounds{
			ImageWidth:     dto.ImageWidth,
			ImageHeight:    dto.ImageHeight,
			TemplateWidth:  dto.TemplateWidth,
			TemplateHeight: dto.TemplateHeight,
		},
	}
}

// FromGene converts a gene to DTO
func FromGene(g genetic.Gene) GeneDTO {
	return GeneDTO{X: g.X, Y: g.Y, Fitness: g.Fitness}
}

// ToGene converts the DTO back to a gene
func (dto GeneDTO) ToGene() genetic.Gene {
	return genetic.Gene{X: dto.X, Y: dto.Y, Fitness: dto.Fitness}
}

// FromPopulation converts genes to DTOs
func FromPopulation(pop []genetic.Gene) []GeneDTO {
	out := make([]GeneDTO, len(pop))
	for i, g := range pop {
		out[i] = FromGene(g)
	}
	return out
}

// FromRows converts history rows to DTOs
func FromRows(rows []tracking.Row) []RowDTO {
	out := make([]RowDTO, len(rows))
	for i, r := range rows {
		out[i] = RowDTO(r)
	}
	return out
}

// Rows converts the report history back to tracking rows
func (r Report) Rows() []tracking.Row {
	out := make([]tracking.Row, len(r.History))
	for i, row := range r.History {
		out[i] = tracking.Row(row)
	}
	return out
}
