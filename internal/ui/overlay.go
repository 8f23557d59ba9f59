//go:build ebiten

package ui

import (
	"fmt"
	"image"
	"image/color"

	"sandfall/internal/sims/sand"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// Overlay draws the element bar and the brush outline over the world.
type Overlay struct {
	elements []sand.Element
	scale    int
	pixel    *ebiten.Image
}

// NewOverlay builds an overlay for the paintable elements of reg.
func NewOverlay(reg *sand.Registry, scale int) *Overlay {
	if scale <= 0 {
		scale = 1
	}
	o := &Overlay{elements: Paintable(reg), scale: scale}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Elements lists the elements shown on the bar, in bar order.
func (o *Overlay) Elements() []sand.Element { return o.elements }

// Draw renders the bar with selected highlighted and, when the cursor is over
// the world, a square outline of the brush centred on cell (cx, cy).
func (o *Overlay) Draw(screen *ebiten.Image, selected sand.ElementID, cx, cy, brush int, cursorInWorld bool) {
	face := basicfont.Face7x13
	for n, el := range o.elements {
		r := SwatchRect(n)
		if el.ID == selected {
			fillRect(screen, o.pixel, r.Inset(-2), color.RGBA{R: 240, G: 240, B: 240, A: 255})
		}
		fillRect(screen, o.pixel, r, el.Color)
		label := fmt.Sprintf("%d %s", n+1, el.Name)
		text.Draw(screen, label, face, r.Min.X+3, r.Max.Y-5, sand.TextColor(el.Color))
	}
	if !cursorInWorld {
		return
	}
	half := brush / 2
	origin := image.Pt((cx-half)*o.scale, (cy-half)*o.scale)
	rect := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(brush*o.scale, brush*o.scale))}
	o.outline(screen, rect, color.RGBA{R: 255, G: 255, B: 255, A: 160})
}

func (o *Overlay) outline(screen *ebiten.Image, r image.Rectangle, c color.RGBA) {
	fillRect(screen, o.pixel, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fillRect(screen, o.pixel, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fillRect(screen, o.pixel, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fillRect(screen, o.pixel, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}
