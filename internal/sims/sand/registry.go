package sand

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

var (
	// ErrDuplicateElement reports two catalog entries sharing an id or name.
	ErrDuplicateElement = errors.New("duplicate element")
	// ErrInvalidElement reports a malformed catalog entry.
	ErrInvalidElement = errors.New("invalid element")
)

// Registry is the immutable element catalog. It is safe to share between
// worlds once built.
type Registry struct {
	elems  []Element
	known  []bool
	byName map[string]ElementID
}

// NewRegistry validates and indexes the given elements. The NONE sentinel is
// added when no element with id 0 is supplied.
func NewRegistry(elems ...Element) (*Registry, error) {
	maxID := 0
	for _, e := range elems {
		if int(e.ID) > maxID {
			maxID = int(e.ID)
		}
	}
	r := &Registry{
		elems:  make([]Element, maxID+1),
		known:  make([]bool, maxID+1),
		byName: make(map[string]ElementID, len(elems)+1),
	}
	for _, e := range elems {
		if err := r.add(e); err != nil {
			return nil, err
		}
	}
	if !r.known[ElemNone] {
		if err := r.add(None); err != nil {
			return nil, err
		}
	}
	for i := range r.elems {
		if !r.known[i] {
			r.elems[i] = None
		}
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on an invalid catalog.
func MustRegistry(elems ...Element) *Registry {
	r, err := NewRegistry(elems...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) add(e Element) error {
	name := strings.ToUpper(strings.TrimSpace(e.Name))
	if name == "" {
		return fmt.Errorf("%w: id %d has no name", ErrInvalidElement, e.ID)
	}
	if e.ID == ElemNone && (e.Behavior != BehaviorSkip || e.Density != 0) {
		return fmt.Errorf("%w: id 0 must be a skip element with zero density", ErrInvalidElement)
	}
	if r.known[e.ID] {
		return fmt.Errorf("%w: id %d (%s and %s)", ErrDuplicateElement, e.ID, r.elems[e.ID].Name, e.Name)
	}
	if prev, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: name %s (ids %d and %d)", ErrDuplicateElement, name, prev, e.ID)
	}
	e.Name = name
	r.elems[e.ID] = e
	r.known[e.ID] = true
	r.byName[name] = e.ID
	return nil
}

// Lookup returns the element for id. Unregistered ids resolve to NONE.
func (r *Registry) Lookup(id ElementID) Element {
	if int(id) < len(r.elems) {
		return r.elems[id]
	}
	return None
}

// Known reports whether id was registered.
func (r *Registry) Known(id ElementID) bool {
	return int(id) < len(r.known) && r.known[id]
}

// ByName finds an element by name, ignoring case.
func (r *Registry) ByName(name string) (Element, bool) {
	id, ok := r.byName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Element{}, false
	}
	return r.elems[id], true
}

// Elements lists the registered elements in id order, NONE included.
func (r *Registry) Elements() []Element {
	out := make([]Element, 0, len(r.byName))
	for i, e := range r.elems {
		if r.known[i] {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of registered elements, NONE included.
func (r *Registry) Len() int { return len(r.byName) }

// Palette returns one color per id, suitable for indexing with display cells.
func (r *Registry) Palette() []color.RGBA {
	palette := make([]color.RGBA, len(r.elems))
	for i, e := range r.elems {
		palette[i] = e.Color
	}
	return palette
}

// NewParticle builds a particle of element id at (x, y) with the element's
// initial life.
func (r *Registry) NewParticle(id ElementID, x, y int) Particle {
	return Particle{Type: id, X: x, Y: y, Life: r.Lookup(id).Life}
}
