package correlation

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Mode selects which channels of an image take part in matching
type Mode uint8

const (
	ModeRGB Mode = iota
	ModeGray
)

// String returns human-readable mode name
func (m Mode) String() string {
	switch m {
	case ModeRGB:
		return "rgb"
	case ModeGray:
		return "gray"
	default:
		return "unknown"
	}
}

// Plane is a raster split into per-channel matrices (rows = y, cols = x), values 0-255
type Plane struct {
	Channels []*mat.Dense
	Width    int
	Height   int
}

// FromImage converts an image to planes, origin moved to (0, 0)
func FromImage(img image.Image, mode Mode) Plane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	count := 3
	if mode == ModeGray {
		count = 1
	}

	p := Plane{Width: w, Height: h, Channels: make([]*mat.Dense, count)}
	if w == 0 || h == 0 {
		return p
	}

	data := make([][]float64, count)
	for c := range data {
		data[c] = make([]float64, w*h)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			idx := y*w + x

			if mode == ModeGray {
				data[0][idx] = float64(color.GrayModel.Convert(px).(color.Gray).Y)
				continue
			}
			r, g, b, _ := px.RGBA()
			data[0][idx] = float64(r >> 8)
			data[1][idx] = float64(g >> 8)
			data[2][idx] = float64(b >> 8)
		}
	}

	for c := range data {
		p.Channels[c] = mat.NewDense(h, w, data[c])
	}
	return p
}

// Crop copies a region of the plane into a new plane
func (p Plane) Crop(r image.Rectangle) (Plane, error) {
	if r.Empty() {
		return Plane{}, errors.Wrapf(ErrRegion, "empty region %v", r)
	}
	if !r.In(image.Rect(0, 0, p.Width, p.Height)) {
		return Plane{}, errors.Wrapf(ErrRegion, "region %v outside %dx%d", r, p.Width, p.Height)
	}

	out := Plane{Width: r.Dx(), Height: r.Dy(), Channels: make([]*mat.Dense, len(p.Channels))}
	for c, ch := range p.Channels {
		out.Channels[c] = mat.DenseCopyOf(ch.Slice(r.Min.Y, r.Max.Y, r.Min.X, r.Max.X))
	}
	return out, nil
}

// at returns the channel values at (x, y)
func (p Plane) at(x, y int) []float64 {
	v := make([]float64, len(p.Channels))
	for c, ch := range p.Channels {
		v[c] = ch.At(y, x)
	}
	return v
}
