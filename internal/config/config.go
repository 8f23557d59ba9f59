package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"sandfall/internal/sims/sand"

	"github.com/BurntSushi/toml"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "SANDFALL_CONFIG"

// DefaultPath is used when neither a flag nor EnvPath names a config file.
const DefaultPath = "config/sandfall.toml"

type Config struct {
	Sim     SimConfig     `toml:"sim"`
	Window  WindowConfig  `toml:"window"`
	Bench   BenchConfig   `toml:"bench"`
	Stream  StreamConfig  `toml:"stream"`
	Logging LoggingConfig `toml:"logging"`
}

type SimConfig struct {
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	Seed          int64   `toml:"seed"`
	Floor         bool    `toml:"floor"`
	ScatterChance float64 `toml:"scatter_chance"`
	ScatterRows   int     `toml:"scatter_rows"`
	BrushSize     int     `toml:"brush_size"`
	Elements      string  `toml:"elements"` // YAML catalog; empty = built-in
	Scripts       string  `toml:"scripts"`  // directory of .lua hooks; empty = none
}

type WindowConfig struct {
	Scale int `toml:"scale"`
	TPS   int `toml:"tps"`
	HUD   int `toml:"hud_width"`
}

type BenchConfig struct {
	Steps   int    `toml:"steps"`
	Runs    int    `toml:"runs"`
	Workers int    `toml:"workers"`
	OutDir  string `toml:"out_dir"`
	Profile string `toml:"profile"` // "", "cpu", "mem" or "allocs"
}

type StreamConfig struct {
	BindAddress  string        `toml:"bind_address"`
	TPS          int           `toml:"tps"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	QueueSize    int           `toml:"queue_size"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads the TOML file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvePath picks the config path: an explicit flag value, then EnvPath,
// then DefaultPath.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	sc := sand.DefaultConfig()
	return &Config{
		Sim: SimConfig{
			Width:         sc.Width,
			Height:        sc.Height,
			Seed:          sc.Seed,
			Floor:         sc.Params.Floor,
			ScatterChance: sc.Params.ScatterChance,
			ScatterRows:   sc.Params.ScatterRows,
			BrushSize:     sc.Params.BrushSize,
		},
		Window: WindowConfig{
			Scale: 3,
			TPS:   60,
			HUD:   220,
		},
		Bench: BenchConfig{
			Steps:   600,
			Runs:    8,
			Workers: 4,
		},
		Stream: StreamConfig{
			BindAddress:  "127.0.0.1:8077",
			TPS:          30,
			WriteTimeout: 5 * time.Second,
			QueueSize:    64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SandConfig converts the [sim] section into a world configuration.
func (c *Config) SandConfig() sand.Config {
	return sand.Config{
		Width:  c.Sim.Width,
		Height: c.Sim.Height,
		Seed:   c.Sim.Seed,
		Params: sand.Params{
			Floor:         c.Sim.Floor,
			ScatterChance: c.Sim.ScatterChance,
			ScatterRows:   c.Sim.ScatterRows,
			BrushSize:     c.Sim.BrushSize,
		},
	}
}
