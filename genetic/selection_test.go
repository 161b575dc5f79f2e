package genetic

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
)

func TestSelectionWeights_Proportional(t *testing.T) {
	pop := []Gene{
		{X: 1, Y: 1, Fitness: 10},
		{X: 2, Y: 2, Fitness: 20},
		{X: 3, Y: 3, Fitness: 30},
		{X: 4, Y: 4, Fitness: 40},
	}

	weights := SelectionWeights(pop)
	expected := []int{10, 20, 30, 40}
	for i := range expected {
		if weights[i] != expected[i] {
			t.Errorf("weight %d: expected %d, got %d", i, expected[i], weights[i])
		}
	}
}

func TestSelectionWeights_FloorsShares(t *testing.T) {
	// Shares 1/3 * 100 = 33.33.. each
	pop := []Gene{{Fitness: 1}, {Fitness: 1}, {Fitness: 1}}
	for i, w := range SelectionWeights(pop) {
		if w != 33 {
			t.Errorf("weight %d: expected 33, got %d", i, w)
		}
	}
}

func TestSelectionWeights_ZeroAndNonFinite(t *testing.T) {
	cases := map[string][]Gene{
		"zero":     {{Fitness: 0}, {Fitness: 0}},
		"infinite": {{Fitness: math.Inf(1)}, {Fitness: 1}},
		"tiny":     make([]Gene, 0),
	}
	// Population over 100 with equal fitness: every share is below one slot
	wide := make([]Gene, 200)
	for i := range wide {
		wide[i].Fitness = 0.5
	}
	cases["wide"] = wide

	for name, pop := range cases {
		for i, w := range SelectionWeights(pop) {
			if w != 0 {
				t.Errorf("%s: weight %d expected 0, got %d", name, i, w)
			}
		}
	}
}

func TestRouletteWheel_SlotMapping(t *testing.T) {
	pop := []Gene{{Fitness: 10}, {Fitness: 20}, {Fitness: 30}, {Fitness: 40}}
	wheel := NewRouletteWheel(pop)

	if wheel.Size() != 100 {
		t.Fatalf("expected 100 slots, got %d", wheel.Size())
	}

	cases := []struct {
		slot, index int
	}{
		{0, 0}, {9, 0}, {10, 1}, {29, 1}, {30, 2}, {59, 2}, {60, 3}, {99, 3},
	}
	for _, c := range cases {
		if got := wheel.index(c.slot); got != c.index {
			t.Errorf("slot %d: expected index %d, got %d", c.slot, c.index, got)
		}
	}
}

func TestRouletteWheel_ZeroWeightNeverPicked(t *testing.T) {
	pop := []Gene{{Fitness: 0}, {Fitness: 5}, {Fitness: 0}, {Fitness: 5}}
	wheel := NewRouletteWheel(pop)
	rng := rand.New(rand.NewPCG(3, 3))

	for i := 0; i < 10000; i++ {
		idx := wheel.Pick(rng)
		if pop[idx].Fitness == 0 {
			t.Fatalf("zero-fitness gene %d selected", idx)
		}
	}
}

func TestRouletteWheel_ProportionalFrequency(t *testing.T) {
	pop := []Gene{
		{X: 1, Y: 1, Fitness: 10},
		{X: 2, Y: 2, Fitness: 20},
		{X: 3, Y: 3, Fitness: 30},
		{X: 4, Y: 4, Fitness: 40},
	}
	wheel := NewRouletteWheel(pop)
	rng := rand.New(rand.NewPCG(2024, 7))

	const draws = 200000
	counts := make([]int, len(pop))
	for i := 0; i < draws; i++ {
		counts[wheel.Pick(rng)]++
	}

	ratio := float64(counts[3]) / float64(counts[0])
	if ratio < 3.6 || ratio > 4.4 {
		t.Errorf("expected fitness 40 drawn ~4x as often as fitness 10, ratio %v (counts %v)", ratio, counts)
	}
	for i, c := range counts {
		expected := float64(draws) * pop[i].Fitness / 100
		if math.Abs(float64(c)-expected) > expected*0.05 {
			t.Errorf("gene %d: expected ~%v draws, got %d", i, expected, c)
		}
	}
}

func TestRouletteWheel_DegenerateFallsBackToUniform(t *testing.T) {
	pop := make([]Gene, 4)
	wheel := NewRouletteWheel(pop)
	if !wheel.Degenerate() {
		t.Fatal("expected degenerate wheel")
	}

	rng := rand.New(rand.NewPCG(5, 5))
	counts := make([]int, len(pop))
	for i := 0; i < 40000; i++ {
		counts[wheel.Pick(rng)]++
	}
	for i, c := range counts {
		if c < 9000 || c > 11000 {
			t.Errorf("index %d: expected ~10000 uniform picks, got %d", i, c)
		}
	}
}

func TestFlipBit(t *testing.T) {
	if got := FlipBit(0b0000000000000101, 0); got != 0b0000000000000100 {
		t.Errorf("expected 0b100, got %b", got)
	}
	if got := FlipBit(0, 15); got != 0x8000 {
		t.Errorf("expected 0x8000, got %#x", got)
	}
	if got := FlipBit(FlipBit(1234, 7), 7); got != 1234 {
		t.Errorf("double flip should restore value, got %d", got)
	}
}

func TestMutate_ResetsFitness(t *testing.T) {
	g := Gene{X: 5, Y: 9, Fitness: 3.5}

	mx := Mutate(g, AxisX, 0)
	if mx.X != 4 || mx.Y != 9 || mx.Fitness != BadFitness {
		t.Errorf("x mutation: got %+v", mx)
	}

	my := Mutate(g, AxisY, 1)
	if my.X != 5 || my.Y != 11 || my.Fitness != BadFitness {
		t.Errorf("y mutation: got %+v", my)
	}

	if g.Fitness != 3.5 || g.X != 5 {
		t.Error("mutation must not alter the source gene")
	}
}

func TestCrossover(t *testing.T) {
	a := Gene{X: 1, Y: 2, Fitness: 9}
	b := Gene{X: 3, Y: 4, Fitness: 7}

	if got := Crossover(a, b); got != (Gene{X: 1, Y: 4}) {
		t.Errorf("expected {1 4 0}, got %+v", got)
	}
	if got := Crossover(b, a); got != (Gene{X: 3, Y: 2}) {
		t.Errorf("expected {3 2 0}, got %+v", got)
	}
}

func TestSampleGene_WithinImage(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 5000; i++ {
		g := SampleGene(rng, 17, 5)
		if g.X >= 17 || g.Y >= 5 {
			t.Fatalf("sample (%d, %d) outside 17x5", g.X, g.Y)
		}
	}
}

func TestBounds_Contains(t *testing.T) {
	b := Bounds{ImageWidth: 20, ImageHeight: 10, TemplateWidth: 5, TemplateHeight: 3}

	cases := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{14, 6, true},
		{15, 0, false}, // x + tw == width
		{0, 7, false},  // y + th == height
		{-1, 0, false},
		{0, -1, false},
		{20, 0, false},
		{0, 10, false},
		{65535, 0, false},
	}
	for _, c := range cases {
		if got := b.Contains(c.x, c.y); got != c.want {
			t.Errorf("Contains(%d, %d) = %v, expected %v", c.x, c.y, got, c.want)
		}
	}

	if b.Positions() != 15*7 {
		t.Errorf("expected %d positions, got %d", 15*7, b.Positions())
	}
}

func TestScore_BoundsSentinel(t *testing.T) {
	b := Bounds{ImageWidth: 20, ImageHeight: 10, TemplateWidth: 5, TemplateHeight: 3}
	calls := 0
	oracle := OracleFunc(func(x, y int) float64 {
		calls++
		return 99
	})

	for x := 0; x < 64; x++ {
		for y := 0; y < 32; y++ {
			got := score(b, oracle, uint16(x), uint16(y))
			if b.Contains(x, y) {
				if got != 99 {
					t.Fatalf("(%d, %d): expected oracle fitness, got %v", x, y, got)
				}
			} else if got != BadFitness {
				t.Fatalf("(%d, %d): expected sentinel, got %v", x, y, got)
			}
		}
	}
	if calls != b.Positions() {
		t.Errorf("expected %d oracle calls, got %d", b.Positions(), calls)
	}
}

func TestScore_RejectsNaNAndNegative(t *testing.T) {
	b := Bounds{ImageWidth: 20, ImageHeight: 10, TemplateWidth: 5, TemplateHeight: 3}

	if got := score(b, OracleFunc(func(x, y int) float64 { return math.NaN() }), 1, 1); got != BadFitness {
		t.Errorf("NaN: expected sentinel, got %v", got)
	}
	if got := score(b, OracleFunc(func(x, y int) float64 { return -2 }), 1, 1); got != BadFitness {
		t.Errorf("negative: expected sentinel, got %v", got)
	}
}

func TestConfig_Counts(t *testing.T) {
	c := Config{PopulationSize: 10, CrossoverRate: 0.5, MutationRate: 0.25}
	if c.CrossoverCount() != 5 {
		t.Errorf("expected crossover count 5, got %d", c.CrossoverCount())
	}
	if c.MutationCount() != 2 {
		t.Errorf("expected mutation count 2 (floor of 2.5), got %d", c.MutationCount())
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := testConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(c *Config){
		"zero population":     func(c *Config) { c.PopulationSize = 0 },
		"negative population": func(c *Config) { c.PopulationSize = -3 },
		"crossover above one": func(c *Config) { c.CrossoverRate = 1.01 },
		"mutation negative":   func(c *Config) { c.MutationRate = -0.1 },
		"crossover NaN":       func(c *Config) { c.CrossoverRate = math.NaN() },
		"empty image":         func(c *Config) { c.Bounds.ImageWidth = 0 },
		"huge image":          func(c *Config) { c.Bounds.ImageHeight = 1<<16 + 1 },
		"empty template":      func(c *Config) { c.Bounds.TemplateHeight = 0 },
		"template too wide":   func(c *Config) { c.Bounds.TemplateWidth = c.Bounds.ImageWidth },
		"template too tall":   func(c *Config) { c.Bounds.TemplateHeight = c.Bounds.ImageHeight + 5 },
	}

	for name, mutate := range cases {
		c := testConfig()
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}
