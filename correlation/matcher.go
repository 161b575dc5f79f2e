// Package correlation scores template positions by sum of squared differences
// and serves as the fitness oracle of the genetic search
package correlation

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/gamatch/genetic"
	"github.com/lixenwraith/gamatch/parameter"
)

var (
	// ErrRegion is returned for template regions that do not fit the image
	ErrRegion = errors.New("invalid template region")

	// ErrChannels is returned when image and template planes disagree on channel count
	ErrChannels = errors.New("channel count mismatch")
)

// Matcher slides a template over an image
// It only reads its planes and may be shared between engines
type Matcher struct {
	image    Plane
	template Plane
}

// NewMatcher pairs an image with a template cut from the same or another image
func NewMatcher(img, template Plane) (*Matcher, error) {
	if len(img.Channels) != len(template.Channels) {
		return nil, errors.Wrapf(ErrChannels, "image has %d, template has %d", len(img.Channels), len(template.Channels))
	}
	if template.Width <= 0 || template.Height <= 0 {
		return nil, errors.Wrapf(ErrRegion, "template size %dx%d", template.Width, template.Height)
	}
	if template.Width >= img.Width || template.Height >= img.Height {
		return nil, errors.Wrapf(ErrRegion, "template %dx%d must be smaller than image %dx%d",
			template.Width, template.Height, img.Width, img.Height)
	}
	return &Matcher{image: img, template: template}, nil
}

// Bounds returns the search geometry for the engine
func (m *Matcher) Bounds() genetic.Bounds {
	return genetic.Bounds{
		ImageWidth:     m.image.Width,
		ImageHeight:    m.image.Height,
		TemplateWidth:  m.template.Width,
		TemplateHeight: m.template.Height,
	}
}

// SSD returns the sum of squared differences between the template and the window at (x, y)
// Caller guarantees the window lies inside the image
func (m *Matcher) SSD(x, y int) float64 {
	tw := m.template.Width
	ssd := 0.0

	for c, ch := range m.image.Channels {
		tpl := m.template.Channels[c]
		for r := 0; r < m.template.Height; r++ {
			window := ch.RawRowView(y + r)[x : x+tw]
			row := tpl.RawRowView(r)
			for i, v := range window {
				d := v - row[i]
				ssd += d * d
			}
		}
	}
	return ssd
}

// Evaluate implements genetic.Oracle: 1/SSD, PerfectFitness for an exact match
func (m *Matcher) Evaluate(x, y int) float64 {
	ssd := m.SSD(x, y)
	if ssd == 0 {
		return parameter.PerfectFitness
	}
	return 1.0 / ssd
}

// Exhaustive scans every valid position and returns the best match, first in row order on ties
func (m *Matcher) Exhaustive() genetic.Gene {
	b := m.Bounds()
	best := genetic.Gene{Fitness: genetic.BadFitness}

	for y := 0; y < b.ImageHeight; y++ {
		for x := 0; x < b.ImageWidth; x++ {
			if !b.Contains(x, y) {
				continue
			}
			if f := m.Evaluate(x, y); f > best.Fitness {
				best = genetic.Gene{X: uint16(x), Y: uint16(y), Fitness: f}
			}
		}
	}
	return best
}
