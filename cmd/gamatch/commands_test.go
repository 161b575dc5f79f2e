package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/correlation"
	"github.com/lixenwraith/gamatch/persistence"
	"github.com/lixenwraith/gamatch/raster"
)

// writeNoise stores a random RGB image so every template window is unique
func writeNoise(t *testing.T, dir string, w, h int) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(5, 5))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255})
		}
	}

	path := filepath.Join(dir, "noise.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command and returns stdout and stderr
func execute(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func TestRun_ReportAndChart(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)
	reports := filepath.Join(dir, "reports")
	chartPath := filepath.Join(dir, "fitness.png")

	out, _, err := execute(t, context.Background(), "run", img,
		"--region", "10,8,8,6",
		"--population", "30",
		"--generations", "5",
		"--seed", "7",
		"--reports", reports,
		"--report", "first",
		"--chart", chartPath,
		"--log-level", "error")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "best x=") || !strings.Contains(out, "generation=5") {
		t.Errorf("Expected best line at generation 5, got %q", out)
	}

	report, err := persistence.NewManager(reports).Load("first")
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}
	if report.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", report.Seed)
	}
	if report.Region != "10,8,8,6" {
		t.Errorf("Expected region 10,8,8,6, got %q", report.Region)
	}
	if len(report.History) != 6 {
		t.Errorf("Expected 6 history rows, got %d", len(report.History))
	}
	if len(report.Population) != 30 {
		t.Errorf("Expected 30 saved genes, got %d", len(report.Population))
	}

	if info, err := os.Stat(chartPath); err != nil || info.Size() == 0 {
		t.Errorf("Expected chart at %s: %v", chartPath, err)
	}
}

func TestRun_OverwriteWarns(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)
	args := []string{"run", img, "--region", "10,8,8,6", "--generations", "2",
		"--reports", filepath.Join(dir, "reports"), "--report", "again", "--log-level", "warn"}

	out, stderr, err := execute(t, context.Background(), args...)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, " peak=") {
		t.Errorf("Expected peak fitness in output, got %q", out)
	}
	if strings.Contains(stderr, "overwriting report") {
		t.Errorf("Expected no warning on first save, got %q", stderr)
	}

	if _, stderr, err = execute(t, context.Background(), args...); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "overwriting report") {
		t.Errorf("Expected overwrite warning, got %q", stderr)
	}
}

func TestRun_Deterministic(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)
	args := []string{"run", img, "--region", "10,8,8,6", "--generations", "8", "--seed", "99", "--log-level", "error"}

	first, _, err := execute(t, context.Background(), args...)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, _, err := execute(t, context.Background(), args...)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("Expected identical output for the same seed, got %q and %q", first, second)
	}
}

func TestRun_PercentFlags(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)
	reports := filepath.Join(dir, "reports")

	_, _, err := execute(t, context.Background(), "run", img,
		"--region", "10,8,8,6",
		"--population", "50",
		"--crossover-percent", "20",
		"--mutation-percent", "10",
		"--generations", "1",
		"--reports", reports,
		"--report", "rates",
		"--log-level", "error")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report, err := persistence.NewManager(reports).Load("rates")
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}
	if report.Config.CrossoverRate != 0.2 || report.Config.MutationRate != 0.1 {
		t.Errorf("Expected rates 0.2/0.1, got %v/%v", report.Config.CrossoverRate, report.Config.MutationRate)
	}
}

func TestRun_Rejects(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)

	tests := map[string]struct {
		args []string
		want error
	}{
		"missing region": {[]string{"run", img}, raster.ErrRect},
		"bad region":     {[]string{"run", img, "--region", "1,2,3"}, raster.ErrRect},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, context.Background(), append(tt.args, "--log-level", "error")...)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, _, err := execute(t, context.Background(), "run", filepath.Join(dir, "missing.png"), "--region", "1,1,2,2"); err == nil {
		t.Error("Expected error for missing image")
	}
	if _, _, err := execute(t, context.Background(), "run", img, "--region", "0,0,4,4", "--population", "0"); err == nil {
		t.Error("Expected error for zero population")
	}
}

func TestBench(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)

	out, _, err := execute(t, context.Background(), "bench", img,
		"--region", "10,8,8,6",
		"--population", "40",
		"--generations", "4",
		"--trials", "3",
		"--parallel", "2",
		"--seed", "3",
		"--log-level", "error")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "optimum x=10 y=8") {
		t.Errorf("Expected exhaustive optimum at the template origin, got %q", out)
	}
	if !strings.Contains(out, "positions=1360") {
		t.Errorf("Expected 40*34 positions, got %q", out)
	}
	if !strings.Contains(out, "trials=3") {
		t.Errorf("Expected 3 trials, got %q", out)
	}
}

func TestBench_RejectsRegion(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)

	_, _, err := execute(t, context.Background(), "bench", img, "--region", "44,8,8,6", "--trials", "1", "--log-level", "error")
	if !errors.Is(err, correlation.ErrRegion) {
		t.Errorf("Expected ErrRegion, got %v", err)
	}
}

func TestBench_Cancelled(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := execute(t, ctx, "bench", img, "--region", "10,8,8,6", "--generations", "50", "--trials", "4", "--log-level", "error")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	results := []trialResult{
		{index: 0, evaluations: 100},
		{index: 1, evaluations: 300},
	}
	results[0].best.X, results[0].best.Y, results[0].best.Fitness = 4, 5, 2
	results[1].best.X, results[1].best.Y, results[1].best.Fitness = 1, 1, 1

	optimum := results[0].best
	sum := summarize(results, optimum, 10)
	if sum.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", sum.Hits)
	}
	if sum.MeanBest != 1.5 {
		t.Errorf("Expected mean best 1.5, got %v", sum.MeanBest)
	}
	if sum.MeanEvaluations != 200 {
		t.Errorf("Expected mean evaluations 200, got %v", sum.MeanEvaluations)
	}

	if empty := summarize(nil, optimum, 10); empty.Trials != 0 || empty.MeanBest != 0 {
		t.Errorf("Expected zero summary, got %+v", empty)
	}
}

func TestPlot(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)
	reports := filepath.Join(dir, "reports")

	if _, _, err := execute(t, context.Background(), "run", img,
		"--region", "10,8,8,6", "--generations", "6", "--reports", reports, "--report", "p", "--log-level", "error"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out := filepath.Join(dir, "plot.png")
	if _, _, err := execute(t, context.Background(), "plot", filepath.Join(reports, "p.toml"), out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Expected chart file: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("Expected a PNG chart: %v", err)
	}

	if _, _, err := execute(t, context.Background(), "plot", filepath.Join(dir, "nope.toml"), out); err == nil {
		t.Error("Expected error for missing report")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := execute(t, ctx, "serve", "--listen", "127.0.0.1:0", "--log-level", "error")
	if err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	img := writeNoise(t, dir, 48, 40)
	reports := filepath.Join(dir, "reports")

	cfg := filepath.Join(dir, "gamatch.toml")
	content := "population = 24\nseed = 5\nregion = \"10,8,8,6\"\ngenerations = 2\n"
	if err := os.WriteFile(cfg, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := execute(t, context.Background(), "run", img,
		"--config", cfg, "--reports", reports, "--report", "c", "--log-level", "error"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	report, err := persistence.NewManager(reports).Load("c")
	if err != nil {
		t.Fatalf("Failed to load report: %v", err)
	}
	if report.Config.PopulationSize != 24 || report.Seed != 5 || report.Generations != 2 {
		t.Errorf("Expected population 24, seed 5, 2 generations; got %d, %d, %d",
			report.Config.PopulationSize, report.Seed, report.Generations)
	}
}
