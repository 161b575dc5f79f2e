// Package session ties one template search together: matcher, engine, history and report export
package session

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/correlation"
	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/persistence"
	"github.com/lixenwraith/gamatch/raster"
	"github.com/lixenwraith/gamatch/tracking"
)

// Options describes a search to start
type Options struct {
	Image        image.Image
	Name         string // image path or upload filename, informational
	Region       image.Rectangle
	Mode         correlation.Mode
	Scale        int
	Population   int
	Crossover    float64
	Mutation     float64
	Seed         uint64
	HistoryLimit int
}

// Session is one running search
// All methods are safe for concurrent use; generations are serialized
// Config, Stats, Best and Peak read a snapshot and never wait on a running advance
type Session struct {
	id      string
	created time.Time
	name    string
	region  image.Rectangle
	mode    correlation.Mode
	scale   int
	seed    uint64
	config  genetic.Config
	matcher *correlation.Matcher

	mu      sync.Mutex
	engine  *genetic.Engine
	history *tracking.History

	snapMu   sync.RWMutex
	snapshot genetic.Stats
	peak     float64
}

// New cuts the template from the image and creates the engine
// The region is relative to the image origin
func New(opts Options) (*Session, error) {
	if opts.Image == nil {
		return nil, errors.New("nil image")
	}
	img := raster.Normalize(opts.Image)

	plane := correlation.FromImage(img, opts.Mode)
	template, err := plane.Crop(opts.Region)
	if err != nil {
		return nil, err
	}
	matcher, err := correlation.NewMatcher(plane, template)
	if err != nil {
		return nil, err
	}

	config := genetic.Config{
		PopulationSize: opts.Population,
		CrossoverRate:  opts.Crossover,
		MutationRate:   opts.Mutation,
		Bounds:         matcher.Bounds(),
	}
	engine, err := genetic.NewSeededEngine(config, matcher, opts.Seed)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:      uuid.NewString(),
		created: time.Now(),
		name:    opts.Name,
		region:  opts.Region,
		mode:    opts.Mode,
		scale:   max(opts.Scale, 1),
		seed:    opts.Seed,
		config:  engine.Config(),
		matcher: matcher,
		engine:  engine,
		history: tracking.NewHistory(opts.HistoryLimit),
	}
	stats := engine.Stats()
	s.history.Record(stats)
	s.publish(stats)
	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// CreatedAt returns the creation time
func (s *Session) CreatedAt() time.Time { return s.created }

// Region returns the template region
func (s *Session) Region() image.Rectangle { return s.region }

// Mode returns the matching mode
func (s *Session) Mode() correlation.Mode { return s.mode }

// Seed returns the engine seed
func (s *Session) Seed() uint64 { return s.seed }

// Matcher returns the fitness oracle
func (s *Session) Matcher() *correlation.Matcher { return s.matcher }

// Config returns the engine configuration
func (s *Session) Config() genetic.Config { return s.config }

// Step advances one generation and records it
// improved reports whether the best fitness beat every earlier generation
func (s *Session) Step() (stats genetic.Stats, improved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step()
}

func (s *Session) step() (genetic.Stats, bool) {
	s.engine.Advance()
	stats := s.engine.Stats()
	s.history.Record(stats)
	s.publish(stats)
	return stats, s.history.Improved()
}

// publish stores the latest generation for lock-free readers; callers hold mu
func (s *Session) publish(stats genetic.Stats) {
	s.snapMu.Lock()
	s.snapshot = stats
	s.peak = s.history.Peak()
	s.snapMu.Unlock()
}

// Advance runs n generations, calling observe after each one
// It stops early when ctx is cancelled and returns the context error
func (s *Session) Advance(ctx context.Context, n int, observe func(stats genetic.Stats, improved bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats, improved := s.step()
		if observe != nil {
			observe(stats, improved)
		}
	}
	return nil
}

// Best returns the fittest gene of the latest generation
func (s *Session) Best() genetic.Gene {
	return s.Stats().Best
}

// Stats returns the statistics of the latest completed generation
func (s *Session) Stats() genetic.Stats {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot
}

// Peak returns the highest best fitness over the recorded history
func (s *Session) Peak() float64 {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.peak
}

// Population returns a copy of the current population
func (s *Session) Population() []genetic.Gene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Population()
}

// Rows returns a copy of the recorded history
func (s *Session) Rows() []tracking.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Rows()
}

// Report snapshots the session for persistence
func (s *Session) Report(withPopulation bool) persistence.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := persistence.Report{
		RunID:       s.id,
		CreatedAt:   s.created,
		Image:       s.name,
		Region:      raster.FormatRect(s.region),
		Mode:        s.mode.String(),
		Scale:       s.scale,
		Seed:        s.seed,
		Config:      persistence.FromConfig(s.engine.Config()),
		Generations: s.engine.Generation(),
		Evaluations: s.engine.Evaluations(),
		Best:        persistence.FromGene(s.engine.Best()),
		History:     persistence.FromRows(s.history.Rows()),
	}
	if withPopulation {
		r.Population = persistence.FromPopulation(s.engine.Population())
	}
	return r
}
