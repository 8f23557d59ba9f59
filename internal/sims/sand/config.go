package sand

import (
	"math"
	"strconv"
)

// MaxBrushSize bounds the square brush edge length.
const MaxBrushSize = 40

// MaxDimension bounds the grid width and height so either fits in a uint16.
const MaxDimension = math.MaxUint16

// Params holds scene seeding and brush settings.
type Params struct {
	// Floor lays a row of BRCK along the bottom edge on Reset.
	Floor bool
	// ScatterChance is the per-cell chance of seeding DUST or WATR in the
	// top ScatterRows rows on Reset.
	ScatterChance float64
	ScatterRows   int

	BrushSize int
}

// Config controls the sand world dimensions.
type Config struct {
	Width  int
	Height int

	Seed int64

	Params Params
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:  256,
		Height: 192,
		Seed:   1337,
		Params: Params{
			Floor:         true,
			ScatterChance: 0.05,
			ScatterRows:   48,
			BrushSize:     4,
		},
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	return DefaultConfig().Apply(cfg)
}

// Apply returns c with the keys of cfg overriding it. Unparsable or
// out-of-range values are ignored.
func (c Config) Apply(cfg map[string]string) Config {
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = min(parsed, MaxDimension)
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = min(parsed, MaxDimension)
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["floor"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Params.Floor = parsed
		}
	}
	if v, ok := cfg["scatter_chance"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Params.ScatterChance = parsed
		}
	}
	if v, ok := cfg["scatter_rows"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Params.ScatterRows = parsed
		}
	}
	if v, ok := cfg["brush_size"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Params.BrushSize = clampBrush(parsed)
		}
	}
	return c
}

func clampBrush(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxBrushSize {
		return MaxBrushSize
	}
	return size
}
