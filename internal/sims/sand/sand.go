package sand

import (
	"errors"
	"fmt"

	"sandfall/internal/core"
	prng "sandfall/pkg/core"

	"go.uber.org/zap"
)

var (
	// ErrInvalidHandle reports a slot index that is out of range or dead.
	ErrInvalidHandle = errors.New("invalid particle handle")
	// ErrCountDesync reports a live counter that disagrees with the store.
	ErrCountDesync = errors.New("live particle count out of sync")
	// ErrOccupancy reports an occupancy index entry that disagrees with the
	// particle store.
	ErrOccupancy = errors.New("occupancy index inconsistent")
)

const emptyCell int32 = -1

// World is the falling-sand simulation: a fixed-capacity particle store with
// one slot per cell, and an occupancy index mapping cells to slots.
//
// A World is owned by a single goroutine; none of its methods lock.
type World struct {
	cfg Config

	w, h int

	reg   *Registry
	parts []Particle
	pmap  []int32
	count int

	display *core.ByteGrid

	rng *prng.RNG
	log *zap.Logger

	tick  uint64
	stats StepStats
}

// Option customises a World at construction.
type Option func(*World)

// WithRegistry sets the element catalog. The default is DefaultRegistry().
func WithRegistry(r *Registry) Option {
	return func(w *World) {
		if r != nil {
			w.reg = r
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// New returns an empty world with the provided dimensions using defaults.
func New(w, h int, opts ...Option) *World {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg, opts...)
}

// NewWithConfig returns an empty world configured from the provided options.
// Scene seeding only happens on Reset.
func NewWithConfig(cfg Config, opts ...Option) *World {
	if cfg.Width <= 0 {
		cfg.Width = 1
	}
	if cfg.Height <= 0 {
		cfg.Height = 1
	}
	cfg.Width = min(cfg.Width, MaxDimension)
	cfg.Height = min(cfg.Height, MaxDimension)
	cfg.Params.BrushSize = clampBrush(cfg.Params.BrushSize)
	total := cfg.Width * cfg.Height
	w := &World{
		cfg:     cfg,
		w:       cfg.Width,
		h:       cfg.Height,
		reg:     DefaultRegistry(),
		parts:   make([]Particle, total),
		pmap:    make([]int32, total),
		display: core.NewByteGrid(cfg.Width, cfg.Height),
		rng:     prng.NewRNG(cfg.Seed),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for i := range w.pmap {
		w.pmap[i] = emptyCell
	}
	return w
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "sand" }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.w, H: w.h} }

// Registry returns the element catalog in use.
func (w *World) Registry() *Registry { return w.reg }

// Capacity returns the number of particle slots, one per cell.
func (w *World) Capacity() int { return len(w.parts) }

// Tick returns the number of completed steps since the last reset.
func (w *World) Tick() uint64 { return w.tick }

// Config returns the world's current configuration.
func (w *World) Config() Config { return w.cfg }

// Cells returns one element id per cell in row-major order. The slice is
// reused between calls.
func (w *World) Cells() []uint8 {
	cells := w.display.Cells()
	for idx, slot := range w.pmap {
		if slot == emptyCell {
			cells[idx] = uint8(ElemNone)
			continue
		}
		cells[idx] = uint8(w.parts[slot].Type)
	}
	return cells
}

func (w *World) inBounds(x, y int) bool { return w.display.InBounds(x, y) }

func (w *World) index(x, y int) int { return w.display.Index(x, y) }

// AddPart claims the first dead slot for p. It fails for the NONE type,
// unregistered types, out-of-bounds or occupied cells, and a full store.
func (w *World) AddPart(p Particle) (int, bool) {
	if p.Type == ElemNone || !w.reg.Known(p.Type) {
		return -1, false
	}
	if !w.inBounds(p.X, p.Y) {
		return -1, false
	}
	cell := w.index(p.X, p.Y)
	if w.pmap[cell] != emptyCell {
		return -1, false
	}
	for i := range w.parts {
		if w.parts[i].Type != ElemNone {
			continue
		}
		w.parts[i] = p
		w.pmap[cell] = int32(i)
		w.count++
		return i, true
	}
	return -1, false
}

// KillPart frees slot i and its cell.
func (w *World) KillPart(i int) error {
	if i < 0 || i >= len(w.parts) || w.parts[i].Type == ElemNone {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, i)
	}
	p := w.parts[i]
	if w.inBounds(p.X, p.Y) {
		cell := w.index(p.X, p.Y)
		if w.pmap[cell] == int32(i) {
			w.pmap[cell] = emptyCell
		}
	}
	w.parts[i] = Particle{}
	w.count--
	return nil
}

// Part returns the particle in slot i. Out-of-range handles yield a dead
// particle.
func (w *World) Part(i int) Particle {
	if i < 0 || i >= len(w.parts) {
		return Particle{}
	}
	return w.parts[i]
}

// PartCount returns the number of live particles.
func (w *World) PartCount() int { return w.count }

// PmapVal returns the slot occupying (x, y). Out-of-bounds cells report empty.
func (w *World) PmapVal(x, y int) (int, bool) {
	if !w.inBounds(x, y) {
		return -1, false
	}
	slot := w.pmap[w.index(x, y)]
	if slot == emptyCell {
		return -1, false
	}
	return int(slot), true
}

// Pmap returns the particle occupying (x, y), if any.
func (w *World) Pmap(x, y int) (Particle, bool) {
	slot, ok := w.PmapVal(x, y)
	if !ok {
		return Particle{}, false
	}
	return w.parts[slot], true
}

// Clear kills every particle and resets the tick counter.
func (w *World) Clear() {
	clear(w.parts)
	for i := range w.pmap {
		w.pmap[i] = emptyCell
	}
	w.count = 0
	w.tick = 0
	w.stats = StepStats{}
}

// Reset clears the world, reseeds the RNG and lays out the configured scene.
// A zero seed falls back to the configured seed.
func (w *World) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = w.cfg.Seed
	}
	w.Clear()
	w.rng.Seed(effective)
	w.seedScene()
	w.log.Debug("sand world reset",
		zap.Int64("seed", effective),
		zap.Int("particles", w.count),
		zap.Int("width", w.w),
		zap.Int("height", w.h))
}

func (w *World) seedScene() {
	params := w.cfg.Params
	if brick, ok := w.reg.ByName("BRCK"); ok && params.Floor {
		for x := 0; x < w.w; x++ {
			w.AddPart(w.reg.NewParticle(brick.ID, x, w.h-1))
		}
	}
	dust, okDust := w.reg.ByName("DUST")
	water, okWater := w.reg.ByName("WATR")
	if params.ScatterChance <= 0 || (!okDust && !okWater) {
		return
	}
	rows := params.ScatterRows
	if rows > w.h {
		rows = w.h
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < w.w; x++ {
			if w.rng.Float64() >= params.ScatterChance {
				continue
			}
			id := dust.ID
			if !okDust || (okWater && w.rng.Bool()) {
				id = water.ID
			}
			w.AddPart(w.reg.NewParticle(id, x, y))
		}
	}
}

// RebuildOccupancy recomputes the occupancy index from the particle store and
// resynchronises the live counter. It returns ErrCountDesync or ErrOccupancy
// when the previous state disagreed.
func (w *World) RebuildOccupancy() error {
	for i := range w.pmap {
		w.pmap[i] = emptyCell
	}
	var errs []error
	live := 0
	for i := range w.parts {
		p := &w.parts[i]
		if p.Type == ElemNone {
			continue
		}
		if !w.inBounds(p.X, p.Y) {
			errs = append(errs, fmt.Errorf("%w: slot %d at (%d,%d) outside grid", ErrOccupancy, i, p.X, p.Y))
			*p = Particle{}
			continue
		}
		cell := w.index(p.X, p.Y)
		if prev := w.pmap[cell]; prev != emptyCell {
			errs = append(errs, fmt.Errorf("%w: slots %d and %d share (%d,%d)", ErrOccupancy, prev, i, p.X, p.Y))
			*p = Particle{}
			continue
		}
		w.pmap[cell] = int32(i)
		live++
	}
	if live != w.count {
		errs = append(errs, fmt.Errorf("%w: counter %d, store %d", ErrCountDesync, w.count, live))
		w.count = live
	}
	err := errors.Join(errs...)
	if err != nil {
		w.log.Warn("occupancy rebuilt with inconsistencies", zap.Error(err))
	} else {
		w.log.Debug("occupancy rebuilt", zap.Int("particles", live))
	}
	return err
}

// Validate checks the occupancy invariants without changing any state.
func (w *World) Validate() error {
	live := 0
	for i, p := range w.parts {
		if p.Type == ElemNone {
			continue
		}
		live++
		if !w.inBounds(p.X, p.Y) {
			return fmt.Errorf("%w: slot %d at (%d,%d) outside grid", ErrOccupancy, i, p.X, p.Y)
		}
		if got := w.pmap[w.index(p.X, p.Y)]; got != int32(i) {
			return fmt.Errorf("%w: cell (%d,%d) holds %d, want slot %d", ErrOccupancy, p.X, p.Y, got, i)
		}
	}
	for cell, slot := range w.pmap {
		if slot == emptyCell {
			continue
		}
		p := w.parts[slot]
		if p.Type == ElemNone {
			return fmt.Errorf("%w: cell %d references dead slot %d", ErrOccupancy, cell, slot)
		}
		if w.index(p.X, p.Y) != cell {
			return fmt.Errorf("%w: cell %d references slot %d at (%d,%d)", ErrOccupancy, cell, slot, p.X, p.Y)
		}
	}
	if live != w.count {
		return fmt.Errorf("%w: counter %d, store %d", ErrCountDesync, w.count, live)
	}
	return nil
}

// Repair validates the world and, when an invariant is broken, rebuilds the
// occupancy index from the particle store. It returns the validation error so
// callers can still report the failure.
func (w *World) Repair() error {
	err := w.Validate()
	if err == nil {
		return nil
	}
	w.log.Info("repairing world", zap.Uint64("tick", w.tick))
	w.RebuildOccupancy()
	return err
}

func init() {
	core.Register("sand", func(cfg map[string]string) core.Sim {
		c := FromMap(cfg)
		return NewWithConfig(c)
	})
}
