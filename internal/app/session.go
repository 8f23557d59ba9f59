package app

import (
	"fmt"

	"sandfall/internal/sims/sand"

	"go.uber.org/zap"
)

// Session is the interactive state wrapped around a World: pause flag,
// pending single steps, the selected element and the reset seed. The GUI and
// the stream server both drive the world through it. Not safe for concurrent
// use.
type Session struct {
	world    *sand.World
	log      *zap.Logger
	seed     int64
	paused   bool
	stepOnce bool
	selected sand.ElementID
}

// NewSession wraps world. The first registered element is selected.
func NewSession(world *sand.World, seed int64, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{world: world, log: log, seed: seed}
	for _, el := range world.Registry().Elements() {
		if el.ID != sand.ElemNone {
			s.selected = el.ID
			break
		}
	}
	return s
}

func (s *Session) World() *sand.World       { return s.world }
func (s *Session) Seed() int64              { return s.seed }
func (s *Session) Paused() bool             { return s.paused }
func (s *Session) Selected() sand.ElementID { return s.selected }

func (s *Session) TogglePause() { s.paused = !s.paused }

func (s *Session) SetPaused(paused bool) { s.paused = paused }

// RequestStep makes the next Advance step once even while paused.
func (s *Session) RequestStep() { s.stepOnce = true }

// Reset reseeds the world; zero means the configured seed. It drops any
// pending single step.
func (s *Session) Reset(seed int64) {
	if seed == 0 {
		seed = s.world.Config().Seed
	}
	s.seed = seed
	s.world.Reset(seed)
	s.stepOnce = false
	s.log.Info("world reset", zap.Int64("seed", seed), zap.Int("particles", s.world.PartCount()))
}

// Select makes id the painted element. NONE and unregistered ids are refused.
func (s *Session) Select(id sand.ElementID) bool {
	if id == sand.ElemNone || !s.world.Registry().Known(id) {
		return false
	}
	s.selected = id
	return true
}

// SelectName selects an element by catalog name.
func (s *Session) SelectName(name string) bool {
	el, ok := s.world.Registry().ByName(name)
	if !ok {
		return false
	}
	return s.Select(el.ID)
}

// AdjustBrush grows or shrinks the brush by delta, clamped by the world.
func (s *Session) AdjustBrush(delta int) {
	s.world.SetBrushSize(s.world.BrushSize() + delta)
}

// Paint drops the selected element under the brush centred on (x, y).
func (s *Session) Paint(x, y int) int {
	return s.world.Paint(x, y, s.world.BrushSize(), s.selected)
}

// Erase clears the brush area centred on (x, y).
func (s *Session) Erase(x, y int) int {
	return s.world.Erase(x, y, s.world.BrushSize())
}

// Advance steps the world when running or when a single step is pending and
// reports whether it did.
func (s *Session) Advance() bool {
	if s.paused && !s.stepOnce {
		return false
	}
	s.world.Step()
	s.stepOnce = false
	return true
}

// Status returns short human-readable state lines for the HUD.
func (s *Session) Status() []string {
	state := "running"
	if s.paused {
		state = "paused"
	}
	stats := s.world.LastStats()
	return []string{
		fmt.Sprintf("%s  tick %d", state, s.world.Tick()),
		fmt.Sprintf("particles %d/%d", s.world.PartCount(), s.world.Capacity()),
		fmt.Sprintf("moved %d  swapped %d", stats.Moved, stats.Swapped),
		fmt.Sprintf("element %s  brush %d", s.world.Registry().Lookup(s.selected).Name, s.world.BrushSize()),
		fmt.Sprintf("seed %d", s.seed),
	}
}
