package stream

import (
	"encoding/binary"
	"errors"
	"image/color"

	"sandfall/internal/sims/sand"
)

// FrameHeaderSize is the length of the width/height prefix of a frame.
const FrameHeaderSize = 4

// ErrShortFrame is returned when decoding a truncated frame.
var ErrShortFrame = errors.New("stream: short frame")

// EncodeFrame packs a world snapshot as little-endian uint16 width and height
// followed by one element id byte per cell in row-major order.
func EncodeFrame(w, h int, cells []uint8) []byte {
	buf := make([]byte, FrameHeaderSize+len(cells))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(w))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(h))
	copy(buf[FrameHeaderSize:], cells)
	return buf
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(buf []byte) (w, h int, cells []uint8, err error) {
	if len(buf) < FrameHeaderSize {
		return 0, 0, nil, ErrShortFrame
	}
	w = int(binary.LittleEndian.Uint16(buf[0:2]))
	h = int(binary.LittleEndian.Uint16(buf[2:4]))
	cells = buf[FrameHeaderSize:]
	if len(cells) != w*h {
		return 0, 0, nil, ErrShortFrame
	}
	return w, h, cells, nil
}

// PaletteEntry describes one element to a viewer.
type PaletteEntry struct {
	ID    uint8    `json:"id"`
	Name  string   `json:"name"`
	Color [4]uint8 `json:"color"`
}

// Hello is the JSON message sent to every client on connect.
type Hello struct {
	Type     string         `json:"type"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Elements []PaletteEntry `json:"elements"`
}

// NewHello describes reg and the world dimensions.
func NewHello(w, h int, reg *sand.Registry) Hello {
	els := reg.Elements()
	out := Hello{Type: "palette", Width: w, Height: h, Elements: make([]PaletteEntry, 0, len(els))}
	for _, el := range els {
		out.Elements = append(out.Elements, PaletteEntry{ID: uint8(el.ID), Name: el.Name, Color: rgba(el.Color)})
	}
	return out
}

func rgba(c color.RGBA) [4]uint8 { return [4]uint8{c.R, c.G, c.B, c.A} }
