package config

import (
	"fmt"

	"sandfall/internal/scripting"
	"sandfall/internal/sims/sand"

	"go.uber.org/zap"
)

// LoadRegistry builds the element catalog named by the [sim] section. With no
// catalog configured the built-in one is used. When a scripts directory is
// set, its Lua functions become available as update hooks; the returned
// engine must then be closed by the caller and is nil otherwise.
func (c *Config) LoadRegistry(log *zap.Logger) (*sand.Registry, *scripting.Engine, error) {
	if c.Sim.Elements == "" && c.Sim.Scripts == "" {
		return sand.DefaultRegistry(), nil, nil
	}

	var engine *scripting.Engine
	var resolver sand.HookResolver
	if c.Sim.Scripts != "" {
		engine = scripting.NewEngine(log)
		if err := engine.LoadDir(c.Sim.Scripts); err != nil {
			engine.Close()
			return nil, nil, fmt.Errorf("load scripts: %w", err)
		}
		resolver = engine.Resolver()
	}

	var reg *sand.Registry
	var err error
	if c.Sim.Elements != "" {
		reg, err = sand.LoadRegistry(c.Sim.Elements, resolver)
	} else {
		reg, err = sand.ParseRegistry(sand.DefaultCatalog(), resolver)
	}
	if err != nil {
		if engine != nil {
			engine.Close()
		}
		return nil, nil, err
	}
	if engine != nil {
		engine.SetElements(reg)
	}
	return reg, engine, nil
}
