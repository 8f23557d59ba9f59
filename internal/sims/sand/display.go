package sand

import "image/color"

// Palette exposes one color per element id for rendering Cells.
func (w *World) Palette() []color.RGBA {
	return w.reg.Palette()
}

// TextColor picks black or white text for a label drawn on c.
func TextColor(c color.RGBA) color.RGBA {
	if int(c.R)+int(c.G)+int(c.B) > 3*255/2 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}
