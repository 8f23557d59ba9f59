package sand

import (
	"fmt"
	"image/color"
	"strings"
)

// ElementID indexes the element registry. Zero is the NONE sentinel and marks
// an empty particle slot.
type ElementID uint8

// Built-in element ids of the default catalog.
const (
	ElemNone ElementID = iota
	ElemBrick
	ElemDust
	ElemWater
	ElemOil
	ElemStone
	ElemLava
	ElemSteam
)

// Behavior selects the movement rule applied to an element each tick.
type Behavior uint8

const (
	// BehaviorSkip elements are inert and never run their update hook.
	BehaviorSkip Behavior = iota
	// BehaviorSolid elements never move.
	BehaviorSolid
	// BehaviorPowder elements fall and pile.
	BehaviorPowder
	// BehaviorFluid elements fall and spread sideways.
	BehaviorFluid
	// BehaviorGas elements currently do not move.
	BehaviorGas
)

var behaviorNames = [...]string{"skip", "solid", "powder", "fluid", "gas"}

func (b Behavior) String() string {
	if int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return fmt.Sprintf("behavior(%d)", uint8(b))
}

// MarshalText encodes the behavior by name.
func (b Behavior) MarshalText() ([]byte, error) {
	if int(b) >= len(behaviorNames) {
		return nil, fmt.Errorf("unknown behavior %d", uint8(b))
	}
	return []byte(behaviorNames[b]), nil
}

// UnmarshalText parses a behavior name, case-insensitively.
func (b *Behavior) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range behaviorNames {
		if n == name {
			*b = Behavior(i)
			return nil
		}
	}
	return fmt.Errorf("unknown behavior %q", string(text))
}

// UpdateFunc is a per-tick hook run after movement. It may change the
// particle's type, life and props; position changes are discarded.
type UpdateFunc func(p *Particle)

// HookResolver maps an update hook name from a catalog to its function.
type HookResolver func(name string) (UpdateFunc, error)

// Element is an immutable material definition.
type Element struct {
	ID       ElementID
	Name     string
	Color    color.RGBA
	Behavior Behavior
	Density  uint16
	// Life seeds Particle.Life for particles built with Registry.NewParticle.
	Life   int32
	Update UpdateFunc
}

// None is the reserved empty-cell element.
var None = Element{ID: ElemNone, Name: "NONE", Behavior: BehaviorSkip}
