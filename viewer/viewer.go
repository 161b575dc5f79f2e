// Package viewer drives a search interactively in the terminal
//
// The image is drawn with half-block cells, two pixel rows per cell. Dragging with the
// left button selects the template; every tick draws the best match and then advances
// one generation.
package viewer

import (
	"context"
	"image"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/gamatch/audio"
	"github.com/lixenwraith/gamatch/correlation"
	"github.com/lixenwraith/gamatch/metrics"
	"github.com/lixenwraith/gamatch/parameter"
	"github.com/lixenwraith/gamatch/persistence"
	"github.com/lixenwraith/gamatch/raster"
	"github.com/lixenwraith/gamatch/session"
)

// Options configures a viewer
type Options struct {
	ImagePath  string
	Image      image.Image // search image, already scaled
	Mode       correlation.Mode
	Scale      int
	Population int
	Crossover  float64
	Mutation   float64
	Seed       uint64          // 0 draws a fresh seed for every search
	Region     image.Rectangle // preselected template in image coordinates, empty for interactive
	Delay      time.Duration

	// Optional collaborators, nil disables them
	Sound    *audio.SoundManager
	Recorder *metrics.Recorder
	Reports  *persistence.Manager
	Logger   *slog.Logger
}

// Viewer owns the terminal while a search runs
type Viewer struct {
	screen        tcell.Screen
	width, height int

	opts   Options
	logger *slog.Logger
	source image.Image

	// Scaled copy shown on screen, pixel coordinates
	display      image.Image
	dispW, dispH int

	// Settings applied when the next search starts
	population   int
	crossoverPct int
	mutationPct  int

	search    *session.Session
	lastEvals uint64
	region    image.Rectangle

	// Drag state in display pixels
	selecting bool
	origin    image.Point
	cursor    image.Point

	paused bool
	status string
}

// New prepares a viewer on an initialized screen
// A non-empty Options.Region starts the search immediately
func New(screen tcell.Screen, opts Options) *Viewer {
	if opts.Delay <= 0 {
		opts.Delay = parameter.ViewerEventLoopDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	v := &Viewer{
		screen:       screen,
		opts:         opts,
		logger:       logger,
		source:       raster.Normalize(opts.Image),
		population:   opts.Population,
		crossoverPct: ratePercent(opts.Crossover),
		mutationPct:  ratePercent(opts.Mutation),
	}

	screen.EnableMouse()
	v.layout()

	if !opts.Region.Empty() {
		v.region = opts.Region
		v.start()
	}
	return v
}

// layout fits the image into the screen area above the status line
func (v *Viewer) layout() {
	v.width, v.height = v.screen.Size()
	rows := max(v.height-parameter.ViewerStatusRows, 1)

	v.display = raster.Fit(v.source, max(v.width, 1), 2*rows)
	b := v.display.Bounds()
	v.dispW, v.dispH = b.Dx(), b.Dy()
}

// Run processes events and ticks until exit is requested or ctx is done
func (v *Viewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(v.opts.Delay)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, parameter.ViewerEventBuffer)
	quit := make(chan struct{})
	defer close(quit)
	go v.screen.ChannelEvents(eventChan, quit)

	v.draw()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-eventChan:
			if !ok {
				return nil
			}
			if !v.handleInput(ev) {
				return nil
			}
			v.draw()

		case <-ticker.C:
			v.tick()
		}
	}
}

// tick draws the current best, then evolves one generation
func (v *Viewer) tick() {
	v.draw()

	if v.search == nil || v.paused {
		return
	}

	stats, improved := v.search.Step()
	v.opts.Recorder.Observe(v.search.ID(), stats, 1, stats.Evaluations-v.lastEvals)
	v.lastEvals = stats.Evaluations

	if improved {
		if v.opts.Sound != nil {
			v.opts.Sound.PlayImprovement()
		}
		v.logger.Debug("best improved",
			"search", v.search.ID(),
			"generation", stats.Generation,
			"x", stats.Best.X,
			"y", stats.Best.Y,
			"fitness", stats.Best.Fitness)
	}
}

// start creates a search for the current region with the current settings
func (v *Viewer) start() {
	seed := v.opts.Seed
	if seed == 0 {
		seed = rand.Uint64() >> 1
	}

	s, err := session.New(session.Options{
		Image:        v.source,
		Name:         v.opts.ImagePath,
		Region:       v.region,
		Mode:         v.opts.Mode,
		Scale:        v.opts.Scale,
		Population:   v.population,
		Crossover:    percentRate(v.crossoverPct),
		Mutation:     percentRate(v.mutationPct),
		Seed:         seed,
		HistoryLimit: parameter.ReportHistoryLimit,
	})
	if err != nil {
		v.logger.Warn("search not started", "region", raster.FormatRect(v.region), "error", err)
		v.status = err.Error()
		v.region = image.Rectangle{}
		return
	}

	v.search = s
	stats := s.Stats()
	v.lastEvals = stats.Evaluations
	v.opts.Recorder.Observe(s.ID(), stats, 0, stats.Evaluations)
	v.status = ""

	v.logger.Info("search started",
		"search", s.ID(),
		"region", raster.FormatRect(v.region),
		"population", v.population,
		"crossover", percentRate(v.crossoverPct),
		"mutation", percentRate(v.mutationPct),
		"seed", seed)
}

// reset drops the search and the selection
func (v *Viewer) reset() {
	if v.search != nil {
		v.opts.Recorder.Forget(v.search.ID())
		v.logger.Info("search reset", "search", v.search.ID(), "generation", v.search.Stats().Generation)
	}
	v.search = nil
	v.region = image.Rectangle{}
	v.selecting = false
	v.paused = false
	v.status = "reset"
}

// save writes the current search as a report
func (v *Viewer) save() {
	if v.search == nil {
		v.status = "nothing to save"
		return
	}
	if v.opts.Reports == nil {
		v.status = "reports disabled"
		return
	}

	name := "view-" + v.search.ID()[:8]
	if err := v.opts.Reports.Save(name, v.search.Report(true)); err != nil {
		v.logger.Error("report not saved", "name", name, "error", err)
		v.status = err.Error()
		return
	}
	v.status = "saved " + v.opts.Reports.FilePath(name)
	v.logger.Info("report saved", "path", v.opts.Reports.FilePath(name))
}

// Close releases the terminal and audio device
func (v *Viewer) Close() {
	if v.search != nil {
		v.opts.Recorder.Forget(v.search.ID())
	}
	if v.opts.Sound != nil {
		v.opts.Sound.Cleanup()
	}
	v.screen.Fini()
}

func ratePercent(rate float64) int {
	return int(math.Round(rate * 100))
}

func percentRate(percent int) float64 {
	return float64(percent) / 100
}
