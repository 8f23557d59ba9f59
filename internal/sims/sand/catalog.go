package sand

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed elements.yaml
var defaultCatalog []byte

// ErrUnknownHook reports a catalog entry naming an update hook that no
// resolver provides.
var ErrUnknownHook = errors.New("unknown update hook")

type elementEntry struct {
	ID       int      `yaml:"id"`
	Name     string   `yaml:"name"`
	Color    [4]uint8 `yaml:"color"`
	Behavior Behavior `yaml:"behavior"`
	Density  uint16   `yaml:"density"`
	Life     int32    `yaml:"life"`
	Update   string   `yaml:"update"`
}

type catalogFile struct {
	Elements []elementEntry `yaml:"elements"`
}

// LoadRegistry reads an element catalog from a YAML file.
func LoadRegistry(path string, hooks HookResolver) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read element catalog: %w", err)
	}
	r, err := ParseRegistry(data, hooks)
	if err != nil {
		return nil, fmt.Errorf("element catalog %s: %w", path, err)
	}
	return r, nil
}

// ParseRegistry builds a registry from YAML catalog data. The built-in hooks
// are bound to the catalog's own ids; any other update name is resolved
// through hooks, which may be nil.
func ParseRegistry(data []byte, hooks HookResolver) (*Registry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse element catalog: %w", err)
	}
	ids := make(map[string]ElementID, len(f.Elements))
	for _, entry := range f.Elements {
		if entry.ID < 0 || entry.ID > 255 {
			return nil, fmt.Errorf("%w: id %d out of range", ErrInvalidElement, entry.ID)
		}
		ids[strings.ToUpper(entry.Name)] = ElementID(entry.ID)
	}
	elems := make([]Element, 0, len(f.Elements))
	for _, entry := range f.Elements {
		e := Element{
			ID:       ElementID(entry.ID),
			Name:     entry.Name,
			Color:    color.RGBA{R: entry.Color[0], G: entry.Color[1], B: entry.Color[2], A: entry.Color[3]},
			Behavior: entry.Behavior,
			Density:  entry.Density,
			Life:     entry.Life,
		}
		if entry.Update != "" {
			fn, err := resolveHook(entry.Update, ids, hooks)
			if err != nil {
				return nil, fmt.Errorf("element %s: %w", entry.Name, err)
			}
			e.Update = fn
		}
		elems = append(elems, e)
	}
	return NewRegistry(elems...)
}

func resolveHook(name string, ids map[string]ElementID, hooks HookResolver) (UpdateFunc, error) {
	switch name {
	case "cool":
		stone, ok := ids["STNE"]
		if !ok {
			return nil, fmt.Errorf("%w: hook %q needs a STNE element", ErrInvalidElement, name)
		}
		return coolInto(stone), nil
	case "fade":
		return fadeHook, nil
	}
	if hooks != nil {
		return hooks(name)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHook, name)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the built-in catalog. It panics if the embedded
// catalog is invalid.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r, err := ParseRegistry(defaultCatalog, nil)
		if err != nil {
			panic(fmt.Sprintf("built-in element catalog: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// DefaultCatalog returns a copy of the embedded YAML catalog.
func DefaultCatalog() []byte {
	return append([]byte(nil), defaultCatalog...)
}

// coolInto counts life down and solidifies into target once it runs out.
func coolInto(target ElementID) UpdateFunc {
	return func(p *Particle) {
		if p.Life > 0 {
			p.Life--
			return
		}
		p.Type = target
	}
}

// fadeHook counts life down and removes the particle once it runs out.
func fadeHook(p *Particle) {
	if p.Life > 0 {
		p.Life--
		return
	}
	p.Type = ElemNone
}
