package sand

// Coin is the randomness consumed by a step: one fair coin per moving
// particle. *core.RNG from sandfall/pkg/core satisfies it.
type Coin interface {
	Bool() bool
}

// StepStats summarises the most recent step.
type StepStats struct {
	Tick    uint64
	Visited int
	Moved   int
	Swapped int
	Killed  int
	Live    int
}

// LastStats returns the statistics of the most recent step.
func (w *World) LastStats() StepStats { return w.stats }

// Step advances the world by one tick using its own RNG.
func (w *World) Step() {
	w.StepWith(w.rng)
}

// StepWith advances the world by one tick, drawing coins from rng.
//
// Slots are visited in reverse index order, so later-added particles move
// first. Iteration stops once every particle that was live at the start of
// the tick has been visited.
func (w *World) StepWith(rng Coin) {
	w.tick++
	w.stats = StepStats{Tick: w.tick}
	remaining := w.count
	for i := len(w.parts) - 1; i >= 0 && w.stats.Visited < remaining; i-- {
		if w.parts[i].Type == ElemNone {
			continue
		}
		w.stats.Visited++

		el := w.reg.Lookup(w.parts[i].Type)
		switch el.Behavior {
		case BehaviorSkip:
			continue
		case BehaviorSolid, BehaviorGas:
			// Gas has no movement rule yet.
		case BehaviorPowder:
			w.powderMove(i, rng.Bool())
		case BehaviorFluid:
			w.liquidMove(i, rng.Bool())
		}
		if w.parts[i].Type != ElemNone {
			w.runUpdate(i, el)
		}
	}
	w.stats.Live = w.count
}

// powderMove tries straight down, then a single diagonal picked by the coin.
func (w *World) powderMove(i int, right bool) {
	if w.tryMove(i, 0, 1, true) {
		return
	}
	w.tryMove(i, side(right), 1, true)
}

// liquidMove tries straight down, then the coin-picked diagonal, then the
// horizontal neighbour on the same side. Only the downward move may swap.
func (w *World) liquidMove(i int, right bool) {
	if w.tryMove(i, 0, 1, true) {
		return
	}
	dx := side(right)
	if w.tryMove(i, dx, 1, false) {
		return
	}
	w.tryMove(i, dx, 0, false)
}

func side(right bool) int {
	if right {
		return 1
	}
	return -1
}

// tryMove moves slot i by (dx, dy). Leaving the grid kills the particle and
// counts as success. An occupied target succeeds only when swap is set and
// the occupant is strictly less dense.
func (w *World) tryMove(i, dx, dy int, swap bool) bool {
	p := &w.parts[i]
	x, y := p.X, p.Y
	nx, ny := x+dx, y+dy

	if !w.inBounds(nx, ny) {
		if err := w.KillPart(i); err == nil {
			w.stats.Killed++
		}
		return true
	}

	from := w.index(x, y)
	to := w.index(nx, ny)
	occupant := w.pmap[to]
	if occupant == emptyCell {
		w.pmap[to] = int32(i)
		w.pmap[from] = emptyCell
		p.X, p.Y = nx, ny
		w.stats.Moved++
		return true
	}
	if !swap {
		return false
	}
	other := &w.parts[occupant]
	if w.reg.Lookup(other.Type).Density >= w.reg.Lookup(p.Type).Density {
		return false
	}
	w.pmap[from] = occupant
	w.pmap[to] = int32(i)
	other.X, other.Y = x, y
	p.X, p.Y = nx, ny
	w.stats.Swapped++
	return true
}

// runUpdate applies the element hook to slot i. The hook cannot move the
// particle; setting its type to NONE kills it, and an unregistered type is
// reverted.
func (w *World) runUpdate(i int, el Element) {
	if el.Update == nil {
		return
	}
	before := w.parts[i]
	p := before
	el.Update(&p)
	p.X, p.Y = before.X, before.Y
	switch {
	case p.Type == ElemNone:
		if err := w.KillPart(i); err == nil {
			w.stats.Killed++
		}
		return
	case !w.reg.Known(p.Type):
		p.Type = before.Type
	}
	w.parts[i] = p
}
