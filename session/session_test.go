package session

import (
	"context"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/correlation"
	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/persistence"
)

func noiseImage(w, h int, seed uint64) *image.RGBA {
	rng := rand.New(rand.NewPCG(seed, seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255})
		}
	}
	return img
}

func testOptions() Options {
	return Options{
		Image:      noiseImage(48, 32, 5),
		Name:       "noise.png",
		Region:     image.Rect(10, 8, 18, 14),
		Mode:       correlation.ModeRGB,
		Population: 20,
		Crossover:  0.5,
		Mutation:   0.1,
		Seed:       42,
	}
}

func TestNew_CreatesEngine(t *testing.T) {
	s, err := New(testOptions())
	if err != nil {
		t.Fatalf("session creation failed: %v", err)
	}

	if s.ID() == "" {
		t.Error("expected generated id")
	}
	cfg := s.Config()
	want := genetic.Bounds{ImageWidth: 48, ImageHeight: 32, TemplateWidth: 8, TemplateHeight: 6}
	if cfg.Bounds != want {
		t.Errorf("expected bounds %+v, got %+v", want, cfg.Bounds)
	}
	if len(s.Population()) != 20 {
		t.Errorf("expected population 20, got %d", len(s.Population()))
	}
	if len(s.Rows()) != 1 || s.Rows()[0].Generation != 0 {
		t.Errorf("expected generation 0 recorded, got %+v", s.Rows())
	}
}

func TestNew_OffsetImage(t *testing.T) {
	opts := testOptions()
	opts.Image = opts.Image.(*image.RGBA).SubImage(image.Rect(4, 4, 48, 32))
	opts.Region = image.Rect(0, 0, 5, 5)

	s, err := New(opts)
	if err != nil {
		t.Fatalf("session creation on sub-image failed: %v", err)
	}
	if b := s.Config().Bounds; b.ImageWidth != 44 || b.ImageHeight != 28 {
		t.Errorf("expected 44x28 search image, got %dx%d", b.ImageWidth, b.ImageHeight)
	}
	if s.Matcher().SSD(0, 0) != 0 {
		t.Error("template cut at origin should match at (0,0)")
	}
}

func TestNew_Rejects(t *testing.T) {
	opts := testOptions()
	opts.Region = image.Rect(40, 30, 60, 40)
	if _, err := New(opts); !errors.Is(err, correlation.ErrRegion) {
		t.Errorf("expected ErrRegion, got %v", err)
	}

	opts = testOptions()
	opts.Region = image.Rect(0, 0, 48, 32)
	if _, err := New(opts); !errors.Is(err, correlation.ErrRegion) {
		t.Errorf("expected ErrRegion for full-image template, got %v", err)
	}

	opts = testOptions()
	opts.Population = 0
	if _, err := New(opts); !errors.Is(err, genetic.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	opts = testOptions()
	opts.Image = nil
	if _, err := New(opts); err == nil {
		t.Error("expected error for nil image")
	}
}

func TestSession_Deterministic(t *testing.T) {
	a, err := New(testOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(testOptions())
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 15; i++ {
		a.Step()
		b.Step()
	}

	pa, pb := a.Population(), b.Population()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("gene %d differs: %+v vs %+v", i, pa[i], pb[i])
		}
	}
}

func TestSession_Advance(t *testing.T) {
	s, err := New(testOptions())
	if err != nil {
		t.Fatal(err)
	}

	calls := 0
	peak := s.Best().Fitness
	err = s.Advance(context.Background(), 10, func(stats genetic.Stats, improved bool) {
		calls++
		if improved {
			if stats.Best.Fitness <= peak {
				t.Errorf("improvement reported without new peak at generation %d", stats.Generation)
			}
			peak = stats.Best.Fitness
		}
	})
	if err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	if calls != 10 {
		t.Errorf("expected 10 observations, got %d", calls)
	}
	if s.Stats().Generation != 10 {
		t.Errorf("expected generation 10, got %d", s.Stats().Generation)
	}
	if len(s.Rows()) != 11 {
		t.Errorf("expected 11 history rows, got %d", len(s.Rows()))
	}
}

func TestSession_AdvanceCancelled(t *testing.T) {
	s, err := New(testOptions())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	err = s.Advance(ctx, 100, func(stats genetic.Stats, _ bool) {
		if stats.Generation == 3 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if g := s.Stats().Generation; g != 3 {
		t.Errorf("expected to stop at generation 3, got %d", g)
	}
}

func TestSession_ReadsDuringAdvance(t *testing.T) {
	s, err := New(testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Step()

	// Hold the generation lock as a running advance would
	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(chan genetic.Stats, 1)
	go func() {
		_ = s.Config()
		_ = s.Best()
		_ = s.Peak()
		done <- s.Stats()
	}()

	select {
	case stats := <-done:
		if stats.Generation != 1 {
			t.Errorf("expected snapshot of generation 1, got %d", stats.Generation)
		}
	case <-time.After(time.Second):
		t.Fatal("snapshot reads blocked on the generation lock")
	}
}

func TestSession_SnapshotTracksEngine(t *testing.T) {
	s, err := New(testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if s.Stats().Generation != 0 || s.Stats().Size != s.Config().PopulationSize {
		t.Errorf("expected initial snapshot of full population, got %+v", s.Stats())
	}

	peak := s.Stats().Best.Fitness
	err = s.Advance(context.Background(), 5, func(stats genetic.Stats, _ bool) {
		peak = max(peak, stats.Best.Fitness)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Stats().Generation; got != 5 {
		t.Errorf("expected generation 5, got %d", got)
	}
	if want := genetic.BestOf(s.Population()); s.Best().Fitness != want.Fitness {
		t.Errorf("expected best fitness %v, got %v", want.Fitness, s.Best().Fitness)
	}
	if s.Peak() != peak {
		t.Errorf("expected peak %v, got %v", peak, s.Peak())
	}
}

func TestSession_Report(t *testing.T) {
	opts := testOptions()
	opts.Scale = 2
	s, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	s.Step()
	s.Step()

	r := s.Report(false)
	if r.RunID != s.ID() || r.Image != "noise.png" || r.Region != "10,8,8,6" {
		t.Errorf("unexpected report header: %+v", r)
	}
	if r.Mode != "rgb" || r.Scale != 2 || r.Seed != 42 {
		t.Errorf("unexpected mode/scale/seed: %s %d %d", r.Mode, r.Scale, r.Seed)
	}
	if r.Generations != 2 || len(r.History) != 3 {
		t.Errorf("expected 2 generations and 3 rows, got %d and %d", r.Generations, len(r.History))
	}
	if r.Population != nil {
		t.Error("population should be omitted")
	}
	if r.Best.ToGene() != s.Best() {
		t.Errorf("report best %+v differs from session best %+v", r.Best, s.Best())
	}

	if full := s.Report(true); len(full.Population) != 20 {
		t.Errorf("expected 20 genes in full report, got %d", len(full.Population))
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	reg := NewRegistry(2, persistence.NewManager(t.TempDir()))

	a, err := reg.Create(testOptions())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	b, err := reg.Create(testOptions())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := reg.Create(testOptions()); !errors.Is(err, ErrLimit) {
		t.Errorf("expected ErrLimit, got %v", err)
	}

	got, err := reg.Get(a.ID())
	if err != nil || got != a {
		t.Errorf("get returned %v, %v", got, err)
	}

	list := reg.List()
	if len(list) != 2 || list[0] != a || list[1] != b {
		t.Errorf("expected sessions in creation order")
	}

	if err := reg.Remove(a.ID()); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := reg.Get(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}
	if err := reg.Remove(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("expected 1 session, got %d", reg.Len())
	}
}

func TestRegistry_SaveAll(t *testing.T) {
	dir := t.TempDir()
	reports := persistence.NewManager(dir)
	reg := NewRegistry(0, reports)

	s, err := reg.Create(testOptions())
	if err != nil {
		t.Fatal(err)
	}
	s.Step()

	if err := reg.SaveAll(); err != nil {
		t.Fatalf("save all failed: %v", err)
	}

	r, err := reports.Load(s.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if r.Generations != 1 || len(r.Population) != 20 {
		t.Errorf("unexpected saved report: generations %d, population %d", r.Generations, len(r.Population))
	}

	if err := NewRegistry(0, nil).SaveAll(); err != nil {
		t.Errorf("registry without persistence should not fail: %v", err)
	}
}
