package render

import (
	"image"
	"image/color"
)

// Background is drawn for empty cells.
var Background = color.RGBA{R: 12, G: 12, B: 16, A: 255}

// fillPaletteRGBA converts element ids into RGBA pixels using a palette
// indexed by id. Empty cells, transparent entries and ids past the end of the
// palette are painted with bg.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA, bg color.RGBA) {
	for i, c := range cells {
		col := bg
		if int(c) < len(palette) && c != 0 && palette[c].A != 0 {
			col = palette[c]
		}
		base := i * 4
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// Image renders cells into a new w*h RGBA image. It returns nil when the
// cell slice does not match the dimensions.
func Image(w, h int, cells []uint8, palette []color.RGBA) *image.RGBA {
	if w <= 0 || h <= 0 || len(cells) != w*h {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillPaletteRGBA(img.Pix, cells, palette, Background)
	return img
}
