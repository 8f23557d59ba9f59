package ui

import (
	"testing"

	"sandfall/internal/core"
	"sandfall/internal/sims/sand"
)

type fakeSetter struct {
	ints   map[string]int
	floats map[string]float64
}

func (f *fakeSetter) SetIntParameter(key string, v int) bool {
	f.ints[key] = v
	return true
}

func (f *fakeSetter) SetFloatParameter(key string, v float64) bool {
	f.floats[key] = v
	return true
}

func snapshot(params ...core.Parameter) core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{{Name: "test", Params: params}}}
}

func TestControlRefresh(t *testing.T) {
	s := controlState{control: core.ParameterControl{Key: "brush", Type: core.ParamTypeInt}}
	s.refresh(snapshot(core.Parameter{Key: "brush", Value: "4"}))
	if !s.hasValue || s.intValue != 4 || s.value != "4" {
		t.Fatalf("refresh int: %+v", s)
	}
	s.refresh(snapshot(core.Parameter{Key: "brush", Value: "four"}))
	if s.hasValue || s.value != "--" {
		t.Fatalf("unparsable value should clear state: %+v", s)
	}
	s.refresh(snapshot())
	if s.hasValue {
		t.Fatal("missing key should clear state")
	}

	f := controlState{control: core.ParameterControl{Key: "chance", Type: core.ParamTypeFloat, Step: 0.01}}
	f.refresh(snapshot(core.Parameter{Key: "chance", Value: "0.05"}))
	if !f.hasValue || f.value != "0.05" {
		t.Fatalf("refresh float: %+v", f)
	}
}

func TestControlApplyClamps(t *testing.T) {
	setter := &fakeSetter{ints: map[string]int{}, floats: map[string]float64{}}

	s := controlState{control: core.ParameterControl{Key: "brush", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: 3, HasMin: true, HasMax: true}}
	s.refresh(snapshot(core.Parameter{Key: "brush", Value: "3"}))
	if s.apply(1, setter, setter) {
		t.Fatal("stepping past the max should be a no-op")
	}
	if !s.apply(-1, setter, setter) || setter.ints["brush"] != 2 || s.value != "2" {
		t.Fatalf("decrement: %+v %v", s, setter.ints)
	}

	f := controlState{control: core.ParameterControl{Key: "chance", Type: core.ParamTypeFloat, Step: 0.5, Min: 0, Max: 1, HasMin: true, HasMax: true}}
	f.refresh(snapshot(core.Parameter{Key: "chance", Value: "0.8"}))
	if !f.apply(1, setter, setter) || setter.floats["chance"] != 1 {
		t.Fatalf("increment should clamp to 1, got %v", setter.floats["chance"])
	}
	if f.apply(1, nil, nil) {
		t.Fatal("apply without a setter should fail")
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		step float64
		want string
	}{
		{0.0005, "0.1235"},
		{0.005, "0.123"},
		{0.05, "0.12"},
		{0.5, "0.1"},
	}
	for _, tc := range cases {
		if got := formatFloat(core.ParameterControl{Step: tc.step}, 0.12345); got != tc.want {
			t.Fatalf("step %v: got %s, want %s", tc.step, got, tc.want)
		}
	}
}

func TestSwatchAt(t *testing.T) {
	r := SwatchRect(2)
	if n, ok := SwatchAt(r.Min.X+1, r.Min.Y+1, 4); !ok || n != 2 {
		t.Fatalf("SwatchAt inside third swatch = %d, %v", n, ok)
	}
	if _, ok := SwatchAt(r.Min.X+1, r.Min.Y+1, 2); ok {
		t.Fatal("swatch beyond count should not match")
	}
	if _, ok := SwatchAt(r.Min.X, r.Max.Y+5, 4); ok {
		t.Fatal("point below the bar should not match")
	}
}

func TestPaintableSkipsNone(t *testing.T) {
	els := Paintable(sand.DefaultRegistry())
	if len(els) != 7 {
		t.Fatalf("got %d paintable elements, want 7", len(els))
	}
	if els[0].ID != sand.ElemBrick || els[6].ID != sand.ElemSteam {
		t.Fatalf("unexpected order %v..%v", els[0].Name, els[6].Name)
	}
}
