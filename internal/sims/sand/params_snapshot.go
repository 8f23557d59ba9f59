package sand

import (
	"strconv"

	"sandfall/internal/core"
)

// Parameters reports the world's configuration and live state for the HUD.
func (w *World) Parameters() core.ParameterSnapshot {
	params := w.cfg.Params
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", w.w),
				intParam("h", "Height", w.h),
				int64Param("seed", "Seed", w.cfg.Seed),
			},
		},
		{
			Name: "State",
			Params: []core.Parameter{
				intParam("tick", "Tick", int(w.tick)),
				intParam("particles", "Particles", w.count),
				intParam("capacity", "Capacity", len(w.parts)),
				intParam("moved", "Moved last tick", w.stats.Moved),
				intParam("swapped", "Swapped last tick", w.stats.Swapped),
			},
		},
		{
			Name: "Scene",
			Params: []core.Parameter{
				boolParam("floor", "Brick floor", params.Floor),
				floatParam("scatter_chance", "Scatter chance", params.ScatterChance),
				intParam("scatter_rows", "Scatter rows", params.ScatterRows),
			},
		},
		{
			Name: "Brush",
			Params: []core.Parameter{
				intParam("brush_size", "Brush size", params.BrushSize),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the values adjustable from the HUD.
func (w *World) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "brush_size", Label: "Brush", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: MaxBrushSize, HasMin: true, HasMax: true},
		{Key: "scatter_rows", Label: "Rows", Type: core.ParamTypeInt, Step: 4, Min: 0, HasMin: true},
		{Key: "scatter_chance", Label: "Scatter", Type: core.ParamTypeFloat, Step: 0.01, Min: 0, Max: 1, HasMin: true, HasMax: true},
	}
}

// SetIntParameter updates an integer parameter by key.
func (w *World) SetIntParameter(key string, value int) bool {
	switch key {
	case "brush_size":
		w.SetBrushSize(value)
	case "scatter_rows":
		if value < 0 {
			value = 0
		}
		w.cfg.Params.ScatterRows = value
	default:
		return false
	}
	return true
}

// SetFloatParameter updates a floating point parameter by key.
func (w *World) SetFloatParameter(key string, value float64) bool {
	switch key {
	case "scatter_chance":
		if value < 0 {
			value = 0
		}
		if value > 1 {
			value = 1
		}
		w.cfg.Params.ScatterChance = value
	default:
		return false
	}
	return true
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func boolParam(key, label string, value bool) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeBool,
		Value: strconv.FormatBool(value),
	}
}
