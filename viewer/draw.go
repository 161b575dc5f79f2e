package viewer

import (
	"fmt"
	"image"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/gamatch/parameter"
)

var (
	bestColor     = rgb(parameter.ViewerBestRGB)
	selectColor   = rgb(parameter.ViewerSelectRGB)
	statusStyle   = tcell.StyleDefault.Foreground(rgb(parameter.ViewerStatusFgRGB)).Background(rgb(parameter.ViewerStatusBgRGB))
	halfBlockRune = '▀'
)

func rgb(c [3]int32) tcell.Color {
	return tcell.NewRGBColor(c[0], c[1], c[2])
}

// draw renders the image with overlays and the status line
func (v *Viewer) draw() {
	v.screen.Clear()

	overlay := v.overlay()
	for cy := 0; 2*cy < v.dispH && cy < v.height-parameter.ViewerStatusRows; cy++ {
		for cx := 0; cx < v.dispW && cx < v.width; cx++ {
			style := tcell.StyleDefault.Foreground(overlay.color(v, cx, 2*cy))
			if 2*cy+1 < v.dispH {
				style = style.Background(overlay.color(v, cx, 2*cy+1))
			}
			v.screen.SetContent(cx, cy, halfBlockRune, nil, style)
		}
	}

	v.drawStatus()
	v.screen.Show()
}

// overlay holds the rectangles drawn over the image for one frame, display pixels
type overlay struct {
	selecting bool
	selection image.Rectangle
	template  image.Rectangle
	best      image.Rectangle
}

func (v *Viewer) overlay() overlay {
	var o overlay
	if v.selecting {
		o.selecting = true
		o.selection = v.selection()
	}
	if v.search != nil {
		o.template = v.toDisplay(v.region)
		g := v.search.Best()
		o.best = v.toDisplay(image.Rect(int(g.X), int(g.Y), int(g.X)+v.region.Dx(), int(g.Y)+v.region.Dy()))
	}
	return o
}

// color returns the pixel color at display (x, y) with overlays applied
// Best outline wins over the template outline; the dragged area is inverted
func (o overlay) color(v *Viewer, x, y int) tcell.Color {
	p := image.Pt(x, y)
	if onBorder(o.best, p) {
		return bestColor
	}
	if onBorder(o.template, p) {
		return selectColor
	}

	r, g, b, _ := v.display.At(x, y).RGBA()
	cr, cg, cb := int32(r>>8), int32(g>>8), int32(b>>8)
	if o.selecting && p.In(o.selection) {
		if onBorder(o.selection, p) {
			return selectColor
		}
		cr, cg, cb = 255-cr, 255-cg, 255-cb
	}
	return tcell.NewRGBColor(cr, cg, cb)
}

// onBorder reports whether p lies on the one-pixel outline of r
func onBorder(r image.Rectangle, p image.Point) bool {
	if r.Empty() || !p.In(r) {
		return false
	}
	return p.X == r.Min.X || p.X == r.Max.X-1 || p.Y == r.Min.Y || p.Y == r.Max.Y-1
}

// drawStatus fills the bottom row with search state and settings
func (v *Viewer) drawStatus() {
	row := v.height - parameter.ViewerStatusRows
	if row < 0 {
		return
	}

	settings := fmt.Sprintf("P %d  C %d%%  M %d%%", v.population, v.crossoverPct, v.mutationPct)

	var text string
	if v.search == nil {
		text = "drag to select a template  " + settings + "  x quit"
	} else {
		s := v.search.Stats()
		text = fmt.Sprintf("gen %d  best (%d,%d) %.4g  mean %.3g  %s",
			s.Generation, s.Best.X, s.Best.Y, s.Best.Fitness, s.MeanScore, settings)
		if v.paused {
			text += "  [paused]"
		}
	}
	if v.status != "" {
		text += "  | " + v.status
	}

	col := 0
	for _, r := range text {
		if col >= v.width {
			break
		}
		v.screen.SetContent(col, row, r, nil, statusStyle)
		col++
	}
	for ; col < v.width; col++ {
		v.screen.SetContent(col, row, ' ', nil, statusStyle)
	}
}
