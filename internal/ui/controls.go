package ui

import (
	"image"
	"math"
	"strconv"

	"sandfall/internal/core"
	"sandfall/internal/sims/sand"
)

type controlState struct {
	control core.ParameterControl
	value   string

	intValue   int
	floatValue float64
	hasValue   bool

	top       int
	minusRect image.Rectangle
	plusRect  image.Rectangle
}

// refresh pulls the control's current value out of a parameter snapshot.
func (s *controlState) refresh(snap core.ParameterSnapshot) {
	s.hasValue = false
	s.value = "--"
	param, ok := snap.Lookup(s.control.Key)
	if !ok {
		return
	}
	switch s.control.Type {
	case core.ParamTypeInt:
		parsed, err := strconv.Atoi(param.Value)
		if err != nil {
			return
		}
		s.intValue = parsed
		s.floatValue = float64(parsed)
		s.value = strconv.Itoa(parsed)
		s.hasValue = true
	case core.ParamTypeFloat:
		parsed, err := strconv.ParseFloat(param.Value, 64)
		if err != nil {
			return
		}
		s.floatValue = parsed
		s.value = formatFloat(s.control, parsed)
		s.hasValue = true
	}
}

// target returns the value one step in direction and whether it differs from
// the current value once clamped.
func (s *controlState) target(direction int) (float64, bool) {
	if !s.hasValue || direction == 0 {
		return 0, false
	}
	switch s.control.Type {
	case core.ParamTypeInt:
		step := int(math.Round(s.control.Step))
		if step <= 0 {
			step = 1
		}
		next := math.Round(s.control.Clamp(float64(s.intValue + direction*step)))
		return next, int(next) != s.intValue
	case core.ParamTypeFloat:
		step := s.control.Step
		if step <= 0 {
			step = 0.05
		}
		next := s.control.Clamp(s.floatValue + float64(direction)*step)
		return next, math.Abs(next-s.floatValue) >= 1e-9
	}
	return 0, false
}

// apply pushes the value one step in direction through the matching setter.
func (s *controlState) apply(direction int, ints core.IntParameterSetter, floats core.FloatParameterSetter) bool {
	next, ok := s.target(direction)
	if !ok {
		return false
	}
	switch s.control.Type {
	case core.ParamTypeInt:
		if ints == nil || !ints.SetIntParameter(s.control.Key, int(next)) {
			return false
		}
		s.intValue = int(next)
		s.floatValue = next
		s.value = strconv.Itoa(s.intValue)
	case core.ParamTypeFloat:
		if floats == nil || !floats.SetFloatParameter(s.control.Key, next) {
			return false
		}
		s.floatValue = next
		s.value = formatFloat(s.control, next)
	}
	return true
}

func formatFloat(ctrl core.ParameterControl, value float64) string {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

func pointInRect(x, y int, rect image.Rectangle) bool {
	return x >= rect.Min.X && x < rect.Max.X && y >= rect.Min.Y && y < rect.Max.Y
}

// Element bar geometry, in screen pixels.
const (
	SwatchWidth  = 44
	SwatchHeight = 18
	swatchGap    = 2
)

// SwatchRect is the screen rectangle of the n-th element swatch.
func SwatchRect(n int) image.Rectangle {
	x := swatchGap + n*(SwatchWidth+swatchGap)
	return image.Rect(x, swatchGap, x+SwatchWidth, swatchGap+SwatchHeight)
}

// SwatchAt reports which of count swatches contains (x, y).
func SwatchAt(x, y, count int) (int, bool) {
	for n := 0; n < count; n++ {
		if pointInRect(x, y, SwatchRect(n)) {
			return n, true
		}
	}
	return 0, false
}

// Paintable returns the registry's elements minus the empty sentinel, capped
// at nine so each has a digit key.
func Paintable(reg *sand.Registry) []sand.Element {
	var out []sand.Element
	for _, el := range reg.Elements() {
		if el.ID == sand.ElemNone {
			continue
		}
		out = append(out, el)
		if len(out) == 9 {
			break
		}
	}
	return out
}
