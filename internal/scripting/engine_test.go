package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sandfall/internal/sims/sand"
)

const rustSource = `
function rust(p)
  if p.life > 0 then
    return { life = p.life - 1, p0 = p.p0 + 1 }
  end
  return { type = elements.DUST }
end

function noop(p)
  return nil
end

function broken(p)
  error("boom")
end
`

func TestHookChangesParticle(t *testing.T) {
	e := NewEngine(nil)
	defer e.Close()
	if err := e.LoadString("rust", rustSource); err != nil {
		t.Fatal(err)
	}
	hook, err := e.Hook("rust")
	if err != nil {
		t.Fatal(err)
	}

	p := sand.Particle{Type: sand.ElemBrick, Life: 1}
	hook(&p)
	if p.Life != 0 || p.Props[0] != 1 || p.Type != sand.ElemBrick {
		t.Fatalf("after first call %+v", p)
	}
	hook(&p)
	if p.Type != sand.ElemDust {
		t.Fatalf("expected DUST once life runs out, got %d", p.Type)
	}
}

func TestHookNilAndErrorLeaveParticleUnchanged(t *testing.T) {
	e := NewEngine(nil)
	defer e.Close()
	if err := e.LoadString("rust", rustSource); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"noop", "broken"} {
		hook, err := e.Hook(name)
		if err != nil {
			t.Fatal(err)
		}
		p := sand.Particle{Type: sand.ElemWater, Life: 4, Props: [2]int32{1, 2}}
		want := p
		hook(&p)
		if p != want {
			t.Fatalf("%s changed particle to %+v", name, p)
		}
	}
}

func TestHookUnknownFunction(t *testing.T) {
	e := NewEngine(nil)
	defer e.Close()
	if _, err := e.Hook("missing"); !errors.Is(err, sand.ErrUnknownHook) {
		t.Fatalf("error = %v, want ErrUnknownHook", err)
	}
}

func TestLoadDirAndCatalogResolution(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rust.lua"), []byte(rustSource), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not lua"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(nil)
	defer e.Close()
	if err := e.LoadDir(dir); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadDir(filepath.Join(dir, "absent")); err != nil {
		t.Fatalf("missing dir should be skipped, got %v", err)
	}

	catalog := []byte(`
elements:
  - id: 1
    name: IRON
    behavior: solid
    density: 30
    life: 1
    update: rust
  - id: 2
    name: DUST
    behavior: powder
    density: 10
  - id: 5
    name: STNE
    behavior: powder
    density: 16
  - id: 6
    name: LAVA
    behavior: fluid
    density: 18
    update: cool
`)
	reg, err := sand.ParseRegistry(catalog, e.Resolver())
	if err != nil {
		t.Fatal(err)
	}

	w := sand.New(4, 4, sand.WithRegistry(reg))
	w.Paint(1, 3, 1, 1)
	for i := 0; i < 2; i++ {
		w.Step()
	}
	p, ok := w.Pmap(1, 3)
	if !ok {
		t.Fatal("iron particle vanished")
	}
	if p.Type != 2 {
		t.Fatalf("iron should rust into DUST, got type %d", p.Type)
	}
}

func TestLoadDirReportsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.lua"), []byte("function ("), 0o644); err != nil {
		t.Fatal(err)
	}
	e := NewEngine(nil)
	defer e.Close()
	if err := e.LoadDir(dir); err == nil {
		t.Fatal("expected a load error")
	}
}

func TestSetElementsExposesCatalogIDs(t *testing.T) {
	e := NewEngine(nil)
	defer e.Close()
	if err := e.LoadString("corrode", "function corrode(p) return { type = elements.ACID } end"); err != nil {
		t.Fatal(err)
	}
	reg, err := sand.ParseRegistry([]byte(`
elements:
  - id: 1
    name: IRON
    behavior: solid
    update: corrode
  - id: 9
    name: ACID
    behavior: fluid
`), e.Resolver())
	if err != nil {
		t.Fatal(err)
	}
	e.SetElements(reg)

	hook, err := e.Hook("corrode")
	if err != nil {
		t.Fatal(err)
	}
	p := sand.Particle{Type: 1}
	hook(&p)
	if p.Type != 9 {
		t.Fatalf("elements.ACID resolved to %d, want 9", p.Type)
	}
}
