package sand

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	none := reg.Lookup(ElemNone)
	if none.Behavior != BehaviorSkip || none.Density != 0 {
		t.Fatalf("sentinel element %+v", none)
	}
	cases := []struct {
		id       ElementID
		name     string
		behavior Behavior
		density  uint16
	}{
		{ElemBrick, "BRCK", BehaviorSolid, 20},
		{ElemDust, "DUST", BehaviorPowder, 10},
		{ElemWater, "WATR", BehaviorFluid, 5},
		{ElemOil, "OIL", BehaviorFluid, 3},
		{ElemStone, "STNE", BehaviorPowder, 16},
		{ElemLava, "LAVA", BehaviorFluid, 18},
		{ElemSteam, "STEM", BehaviorGas, 1},
	}
	for _, tc := range cases {
		e := reg.Lookup(tc.id)
		if e.Name != tc.name || e.Behavior != tc.behavior || e.Density != tc.density {
			t.Fatalf("element %d = %+v, want %s/%s/%d", tc.id, e, tc.name, tc.behavior, tc.density)
		}
	}
	if reg.Lookup(ElemLava).Update == nil || reg.Lookup(ElemSteam).Update == nil {
		t.Fatal("LAVA and STEM should carry update hooks")
	}
	if reg.Lookup(ElemLava).Life != 120 {
		t.Fatalf("LAVA life %d, want 120", reg.Lookup(ElemLava).Life)
	}
	if reg.Len() != 8 || len(reg.Elements()) != 8 {
		t.Fatalf("expected 8 elements, got %d", reg.Len())
	}
}

func TestRegistryLookupUnknownIsNone(t *testing.T) {
	reg := MustRegistry(Element{ID: 3, Name: "X", Behavior: BehaviorPowder, Density: 2})
	for _, id := range []ElementID{1, 2, 4, 255} {
		if e := reg.Lookup(id); e.Name != None.Name {
			t.Fatalf("Lookup(%d) = %+v, want NONE", id, e)
		}
		if reg.Known(id) {
			t.Fatalf("Known(%d) should be false", id)
		}
	}
	if !reg.Known(ElemNone) || !reg.Known(3) {
		t.Fatal("sentinel and registered ids must be known")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		Element{ID: 1, Name: "A", Behavior: BehaviorSolid},
		Element{ID: 1, Name: "B", Behavior: BehaviorSolid},
	)
	if !errors.Is(err, ErrDuplicateElement) {
		t.Fatalf("duplicate id error = %v", err)
	}
	_, err = NewRegistry(
		Element{ID: 1, Name: "A", Behavior: BehaviorSolid},
		Element{ID: 2, Name: "a", Behavior: BehaviorSolid},
	)
	if !errors.Is(err, ErrDuplicateElement) {
		t.Fatalf("duplicate name error = %v", err)
	}
}

func TestRegistryRejectsBadSentinel(t *testing.T) {
	_, err := NewRegistry(Element{ID: 0, Name: "VOID", Behavior: BehaviorPowder, Density: 1})
	if !errors.Is(err, ErrInvalidElement) {
		t.Fatalf("error = %v, want ErrInvalidElement", err)
	}
	_, err = NewRegistry(Element{ID: 2, Behavior: BehaviorPowder})
	if !errors.Is(err, ErrInvalidElement) {
		t.Fatalf("unnamed element error = %v, want ErrInvalidElement", err)
	}
}

func TestMustRegistryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustRegistry(Element{ID: 1, Name: "A"}, Element{ID: 1, Name: "B"})
}

func TestByNameIgnoresCase(t *testing.T) {
	e, ok := DefaultRegistry().ByName("watr")
	if !ok || e.ID != ElemWater {
		t.Fatalf("ByName(watr) = %+v, %v", e, ok)
	}
	if _, ok := DefaultRegistry().ByName("plasma"); ok {
		t.Fatal("unknown name should not resolve")
	}
}

func TestPaletteIndexedByID(t *testing.T) {
	reg := DefaultRegistry()
	palette := reg.Palette()
	if len(palette) != 8 {
		t.Fatalf("palette length %d", len(palette))
	}
	if palette[ElemBrick] != reg.Lookup(ElemBrick).Color {
		t.Fatalf("palette[BRCK] = %v", palette[ElemBrick])
	}
	if palette[ElemNone].A != 0 {
		t.Fatal("NONE should be transparent")
	}
}

func TestParseRegistryHooks(t *testing.T) {
	src := []byte(`
elements:
  - id: 1
    name: GLOW
    color: [1, 2, 3, 4]
    behavior: Solid
    density: 9
    update: pulse
`)
	if _, err := ParseRegistry(src, nil); !errors.Is(err, ErrUnknownHook) {
		t.Fatalf("error = %v, want ErrUnknownHook", err)
	}

	calls := 0
	resolver := func(name string) (UpdateFunc, error) {
		if name != "pulse" {
			t.Fatalf("resolver asked for %q", name)
		}
		return func(p *Particle) { calls++; p.Props[1] = 7 }, nil
	}
	reg, err := ParseRegistry(src, resolver)
	if err != nil {
		t.Fatal(err)
	}
	glow := reg.Lookup(1)
	if glow.Behavior != BehaviorSolid || glow.Density != 9 || glow.Color.B != 3 || glow.Color.A != 4 {
		t.Fatalf("parsed element %+v", glow)
	}

	w := New(4, 4, WithRegistry(reg))
	slot := mustAdd(t, w, 1, 0, 0)
	w.Step()
	if calls != 1 || w.Part(slot).Props[1] != 7 {
		t.Fatalf("hook calls %d, props %v", calls, w.Part(slot).Props)
	}
}

func TestCoolHookUsesCatalogStoneID(t *testing.T) {
	src := []byte(`
elements:
  - id: 1
    name: MAGM
    behavior: solid
    density: 30
    update: cool
  - id: 5
    name: ACID
    behavior: fluid
    density: 4
  - id: 9
    name: STNE
    behavior: powder
    density: 16
`)
	reg, err := ParseRegistry(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	w := New(4, 4, WithRegistry(reg))
	slot := mustAdd(t, w, 1, 1, 3)
	w.StepWith(fixedCoin(false))
	if got := w.Part(slot).Type; got != 9 {
		t.Fatalf("MAGM cooled into %d, want STNE (9)", got)
	}
}

func TestCoolHookNeedsStone(t *testing.T) {
	src := []byte("elements:\n  - id: 1\n    name: MAGM\n    behavior: solid\n    update: cool\n  - id: 5\n    name: ACID\n    behavior: fluid\n")
	if _, err := ParseRegistry(src, nil); !errors.Is(err, ErrInvalidElement) {
		t.Fatalf("error = %v, want ErrInvalidElement", err)
	}
}

func TestParseRegistryRejectsBadBehavior(t *testing.T) {
	src := []byte("elements:\n  - id: 1\n    name: X\n    behavior: plasma\n")
	if _, err := ParseRegistry(src, nil); err == nil {
		t.Fatal("expected an error for an unknown behavior")
	}
	src = []byte("elements:\n  - id: 300\n    name: X\n")
	if _, err := ParseRegistry(src, nil); !errors.Is(err, ErrInvalidElement) {
		t.Fatalf("error = %v, want ErrInvalidElement", err)
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elements.yaml")
	if err := os.WriteFile(path, DefaultCatalog(), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadRegistry(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != DefaultRegistry().Len() {
		t.Fatalf("loaded %d elements, want %d", reg.Len(), DefaultRegistry().Len())
	}
	if _, err := LoadRegistry(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Fatal("expected error for a missing catalog")
	}
}

func TestBehaviorText(t *testing.T) {
	for b := BehaviorSkip; b <= BehaviorGas; b++ {
		text, err := b.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var back Behavior
		if err := back.UnmarshalText(text); err != nil || back != b {
			t.Fatalf("round trip of %s gave %s, %v", b, back, err)
		}
	}
	if _, err := Behavior(42).MarshalText(); err == nil {
		t.Fatal("expected error for unknown behavior")
	}
}

func TestTextColor(t *testing.T) {
	if c := TextColor(DefaultRegistry().Lookup(ElemDust).Color); c.R != 0 {
		t.Fatalf("bright background should use dark text, got %v", c)
	}
	if c := TextColor(DefaultRegistry().Lookup(ElemWater).Color); c.R != 255 {
		t.Fatalf("dark background should use light text, got %v", c)
	}
}
