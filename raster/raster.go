// Package raster loads search images and prepares them for matching and display
package raster

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrRect is returned for malformed region strings
	ErrRect = errors.New("invalid rectangle")

	// ErrTooLarge is returned for images above the pixel limit
	ErrTooLarge = errors.New("image too large")
)

// Load decodes an image file; PNG, JPEG, GIF, BMP, TIFF and WebP are registered
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return img, nil
}

// Decode reads an image in any registered format
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return img, nil
}

// DecodeLimited reads the image header first and refuses images above maxPixels
// before any pixel data is decoded; maxPixels <= 0 disables the check
func DecodeLimited(r io.ReadSeeker, maxPixels int) (image.Image, error) {
	if maxPixels > 0 {
		cfg, _, err := image.DecodeConfig(r)
		if err != nil {
			return nil, errors.Wrap(err, "decode image header")
		}
		if cfg.Width*cfg.Height > maxPixels {
			return nil, errors.Wrapf(ErrTooLarge, "%dx%d exceeds %d pixels", cfg.Width, cfg.Height, maxPixels)
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, errors.Wrap(err, "rewind image")
		}
	}
	return Decode(r)
}

// Downscale shrinks an image by an integer factor; factor <= 1 returns the image unchanged
func Downscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	w := max(b.Dx()/factor, 1)
	h := max(b.Dy()/factor, 1)
	return transform.Resize(img, w, h, transform.Linear)
}

// Grayscale converts an image to 8-bit luminance
// bild returns gray levels in an RGBA image; they are repacked into a single channel
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.Grayscale(img)
	b := rgba.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), rgba, b.Min, draw.Src)
	return out
}

// Fit resizes an image to fit inside maxW x maxH, preserving aspect ratio
// Images already inside the box are returned unchanged
func Fit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 || maxW <= 0 || maxH <= 0 {
		return img
	}
	if srcW <= maxW && srcH <= maxH {
		return img
	}

	outW, outH := FitSize(srcW, srcH, maxW, maxH)
	return transform.Resize(img, outW, outH, transform.Linear)
}

// FitSize returns the largest aspect-preserving size inside maxW x maxH
func FitSize(srcW, srcH, maxW, maxH int) (int, int) {
	scale := min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	outW := max(int(float64(srcW)*scale), 1)
	outH := max(int(float64(srcH)*scale), 1)
	return outW, outH
}

// ParseRect parses "x,y,w,h" into a rectangle
func ParseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, errors.Wrapf(ErrRect, "%q: expected x,y,w,h", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, errors.Wrapf(ErrRect, "%q: %v", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, errors.Wrapf(ErrRect, "%q: width and height must be positive", s)
	}
	if v[0] < 0 || v[1] < 0 {
		return image.Rectangle{}, errors.Wrapf(ErrRect, "%q: origin must not be negative", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// FormatRect renders a rectangle as "x,y,w,h"
func FormatRect(r image.Rectangle) string {
	return strconv.Itoa(r.Min.X) + "," + strconv.Itoa(r.Min.Y) + "," +
		strconv.Itoa(r.Dx()) + "," + strconv.Itoa(r.Dy())
}

// ScaleRect maps a rectangle through an integer downscale factor
func ScaleRect(r image.Rectangle, factor int) image.Rectangle {
	if factor <= 1 {
		return r
	}
	out := image.Rect(r.Min.X/factor, r.Min.Y/factor, r.Max.X/factor, r.Max.Y/factor)
	if out.Dx() == 0 {
		out.Max.X++
	}
	if out.Dy() == 0 {
		out.Max.Y++
	}
	return out
}

// Normalize moves an image's origin to (0, 0) so region coordinates are image-relative
func Normalize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Min == (image.Point{}) {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
