package sand

// Paint adds particles of element id in a size x size square centred on
// (cx, cy). Occupied and out-of-bounds cells are skipped. It returns the number
// of particles added.
func (w *World) Paint(cx, cy, size int, id ElementID) int {
	added := 0
	w.eachBrushCell(cx, cy, size, func(x, y int) {
		if _, ok := w.AddPart(w.reg.NewParticle(id, x, y)); ok {
			added++
		}
	})
	return added
}

// Erase kills every particle in a size x size square centred on (cx, cy) and
// returns the number removed.
func (w *World) Erase(cx, cy, size int) int {
	removed := 0
	w.eachBrushCell(cx, cy, size, func(x, y int) {
		slot, ok := w.PmapVal(x, y)
		if !ok {
			return
		}
		if err := w.KillPart(slot); err == nil {
			removed++
		}
	})
	return removed
}

func (w *World) eachBrushCell(cx, cy, size int, fn func(x, y int)) {
	size = clampBrush(size)
	half := size / 2
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			fn(cx-half+dx, cy-half+dy)
		}
	}
}

// BrushSize returns the configured brush edge length.
func (w *World) BrushSize() int { return w.cfg.Params.BrushSize }

// SetBrushSize updates the brush edge length, clamped to [1, MaxBrushSize].
func (w *World) SetBrushSize(size int) {
	w.cfg.Params.BrushSize = clampBrush(size)
}
