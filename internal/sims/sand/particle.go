package sand

// Particle is one slot of the particle store. A Type of ElemNone marks the
// slot as dead.
type Particle struct {
	Type  ElementID
	X, Y  int
	Life  int32
	Props [2]int32
}

// Alive reports whether the slot holds a live particle.
func (p Particle) Alive() bool { return p.Type != ElemNone }
