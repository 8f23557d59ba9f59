package main

import (
	"testing"

	"sandfall/internal/config"
	"sandfall/internal/sims/sand"
)

func TestKVList(t *testing.T) {
	var l kvList
	if err := l.Set("w=32"); err != nil {
		t.Fatal(err)
	}
	if err := l.Set(" seed = 9 "); err != nil {
		t.Fatal(err)
	}
	if err := l.Set("w=64"); err != nil {
		t.Fatal(err)
	}
	if err := l.Set("nope"); err == nil {
		t.Fatal("expected an error for a value without '='")
	}
	m := l.Map()
	if m["w"] != "64" || m["seed"] != "9" {
		t.Fatalf("Map = %v", m)
	}
}

func TestRunScenarioValidates(t *testing.T) {
	base := sand.DefaultConfig()
	base.Width, base.Height = 24, 16
	res := runScenario(base, sand.DefaultRegistry(), job{run: 2, seed: 7}, 30, nil)
	if res.err != nil {
		t.Fatal(res.err)
	}
	if len(res.records) != 30 {
		t.Fatalf("%d records, want 30", len(res.records))
	}
	last := res.records[len(res.records)-1]
	if last.Run != 2 || last.Seed != 7 || last.Tick != 30 || last.Live != res.live {
		t.Fatalf("last record %+v, live %d", last, res.live)
	}
}

func TestSweepRunsEverySeedInOrder(t *testing.T) {
	cfg := config.Defaults()
	base := cfg.SandConfig()
	base.Width, base.Height = 16, 12
	bench := config.BenchConfig{Steps: 5, Runs: 6, Workers: 3}
	results, err := sweep(cfg, base, bench, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 6 {
		t.Fatalf("%d results, want 6", len(results))
	}
	for i, res := range results {
		if res.run != i || res.seed != base.Seed+int64(i) {
			t.Fatalf("result %d is run %d seed %d", i, res.run, res.seed)
		}
	}
}

func TestProfileMode(t *testing.T) {
	for _, name := range []string{"cpu", "mem", "allocs"} {
		if _, err := profileMode(name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if _, err := profileMode("trace"); err == nil {
		t.Fatal("unknown mode should fail")
	}
}
