package genetic

import "math"

// Bounds describes the search image and the template slid across it
type Bounds struct {
	ImageWidth     int
	ImageHeight    int
	TemplateWidth  int
	TemplateHeight int
}

// Contains reports whether the template placed at (x, y) lies strictly inside the image
// The right and bottom edges are exclusive: x+TemplateWidth must stay below ImageWidth
func (b Bounds) Contains(x, y int) bool {
	if x < 0 || x >= b.ImageWidth {
		return false
	}
	if y < 0 || y >= b.ImageHeight {
		return false
	}
	if x+b.TemplateWidth >= b.ImageWidth {
		return false
	}
	if y+b.TemplateHeight >= b.ImageHeight {
		return false
	}
	return true
}

// Positions returns the number of valid template positions
func (b Bounds) Positions() int {
	w := b.ImageWidth - b.TemplateWidth
	h := b.ImageHeight - b.TemplateHeight
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// score evaluates a gene position, applying the bounds sentinel before consulting the oracle
func score(b Bounds, oracle Oracle, x, y uint16) float64 {
	if !b.Contains(int(x), int(y)) {
		return BadFitness
	}

	f := oracle.Evaluate(int(x), int(y))
	// Keep selection weights well-defined
	if math.IsNaN(f) || f < BadFitness {
		return BadFitness
	}
	return f
}
