package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"sandfall/internal/sims/sand"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding element update hooks.
// Single-goroutine access only: hooks run inside World.Step.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates an empty Lua engine.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e := &Engine{vm: vm, log: log}
	e.SetElements(sand.DefaultRegistry())
	return e
}

// Close releases the VM.
func (e *Engine) Close() { e.vm.Close() }

// SetElements replaces the `elements` table with reg's names and ids so
// scripts can write elements.STNE instead of magic numbers. Hooks read the
// table when called, so setting it after the catalog is parsed is enough.
func (e *Engine) SetElements(reg *sand.Registry) {
	t := e.vm.NewTable()
	for _, el := range reg.Elements() {
		t.RawSetString(el.Name, lua.LNumber(el.ID))
	}
	e.vm.SetGlobal("elements", t)
}

// LoadDir loads all .lua files in dir in name order. A missing directory is
// not an error.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source.
func (e *Engine) LoadString(name, src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	e.log.Debug("loaded lua chunk", zap.String("name", name))
	return nil
}

// Hook wraps the global Lua function name as an update hook.
//
// The function receives a table {type, life, p0, p1} and may return a table
// with any of those keys to change the particle, or nil to leave it as is.
// Script errors are logged and leave the particle unchanged.
func (e *Engine) Hook(name string) (sand.UpdateFunc, error) {
	fn, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: lua function %q not defined", sand.ErrUnknownHook, name)
	}
	return func(p *sand.Particle) {
		e.call(name, fn, p)
	}, nil
}

func (e *Engine) call(name string, fn *lua.LFunction, p *sand.Particle) {
	t := e.vm.NewTable()
	t.RawSetString("type", lua.LNumber(p.Type))
	t.RawSetString("life", lua.LNumber(p.Life))
	t.RawSetString("p0", lua.LNumber(p.Props[0]))
	t.RawSetString("p1", lua.LNumber(p.Props[1]))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua update hook error", zap.String("hook", name), zap.Error(err))
		return
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		if result != lua.LNil {
			e.log.Error("lua update hook returned non-table", zap.String("hook", name))
		}
		return
	}
	if v, ok := rt.RawGetString("type").(lua.LNumber); ok {
		if v < 0 || v > 255 {
			e.log.Error("lua update hook returned invalid type", zap.String("hook", name), zap.Float64("type", float64(v)))
		} else {
			p.Type = sand.ElementID(v)
		}
	}
	if v, ok := rt.RawGetString("life").(lua.LNumber); ok {
		p.Life = int32(v)
	}
	if v, ok := rt.RawGetString("p0").(lua.LNumber); ok {
		p.Props[0] = int32(v)
	}
	if v, ok := rt.RawGetString("p1").(lua.LNumber); ok {
		p.Props[1] = int32(v)
	}
}

// Resolver returns a HookResolver over the Lua globals. Catalog parsing
// resolves the Go built-ins before consulting it.
func (e *Engine) Resolver() sand.HookResolver {
	return e.Hook
}
