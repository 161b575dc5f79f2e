package viewer

import (
	"image"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/gamatch/parameter"
)

// handleInput applies one terminal event, returning false when the viewer should exit
func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch ev.Rune() {
		case 'x':
			return false
		case 'r':
			v.reset()
		case ' ':
			if v.search != nil {
				v.paused = !v.paused
			}
		case 's':
			v.save()
		case 'm':
			v.mutationPct = clamp(v.mutationPct-parameter.ViewerRateStep, 0, parameter.GARateSliderMax)
		case 'M':
			v.mutationPct = clamp(v.mutationPct+parameter.ViewerRateStep, 0, parameter.GARateSliderMax)
		case 'c':
			v.crossoverPct = clamp(v.crossoverPct-parameter.ViewerRateStep, 0, parameter.GARateSliderMax)
		case 'C':
			v.crossoverPct = clamp(v.crossoverPct+parameter.ViewerRateStep, 0, parameter.GARateSliderMax)
		case 'p':
			v.population = clamp(v.population-parameter.ViewerPopulationStep, 1, parameter.GAPopulationSliderMax)
		case 'P':
			v.population = clamp(v.population+parameter.ViewerPopulationStep, 1, parameter.GAPopulationSliderMax)
		}

	case *tcell.EventMouse:
		v.handleMouse(ev)

	case *tcell.EventResize:
		v.screen.Sync()
		v.layout()
	}

	return true
}

// handleMouse tracks a left-button drag; releasing completes the selection
// Selection is only possible while no search is running
func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	cx, cy := ev.Position()
	p := v.cellPixel(cx, cy)

	if ev.Buttons()&tcell.Button1 != 0 {
		if !v.selecting {
			if v.search != nil {
				return
			}
			v.selecting = true
			v.origin = p
		}
		v.cursor = p
		return
	}

	if !v.selecting {
		return
	}
	v.selecting = false
	v.cursor = p

	sel := v.selection()
	if sel.Empty() {
		return
	}
	v.region = v.toImage(sel)
	v.start()
}

// cellPixel maps a cell to the display pixel of its upper half, clamped to the image
func (v *Viewer) cellPixel(cx, cy int) image.Point {
	return image.Pt(clamp(cx, 0, v.dispW), clamp(2*cy, 0, v.dispH))
}

// selection returns the dragged rectangle in display pixels
func (v *Viewer) selection() image.Rectangle {
	return image.Rectangle{Min: v.origin, Max: v.cursor}.Canon().Intersect(image.Rect(0, 0, v.dispW, v.dispH))
}

// toImage maps a display rectangle to search image coordinates
func (v *Viewer) toImage(r image.Rectangle) image.Rectangle {
	b := v.source.Bounds()
	out := image.Rect(
		r.Min.X*b.Dx()/v.dispW, r.Min.Y*b.Dy()/v.dispH,
		r.Max.X*b.Dx()/v.dispW, r.Max.Y*b.Dy()/v.dispH,
	)
	if out.Dx() == 0 {
		out.Max.X++
	}
	if out.Dy() == 0 {
		out.Max.Y++
	}
	return out
}

// toDisplay maps a search image rectangle to display pixels, rounding outward
func (v *Viewer) toDisplay(r image.Rectangle) image.Rectangle {
	b := v.source.Bounds()
	w, h := b.Dx(), b.Dy()
	return image.Rect(
		r.Min.X*v.dispW/w, r.Min.Y*v.dispH/h,
		(r.Max.X*v.dispW+w-1)/w, (r.Max.Y*v.dispH+h-1)/h,
	)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
