package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"sandfall/internal/config"
	"sandfall/internal/render"
	"sandfall/internal/sims/sand"
	"sandfall/internal/telemetry"

	"github.com/pkg/profile"
	"go.uber.org/zap"
)

type kvList []string

func (l *kvList) String() string {
	return strings.Join(*l, ",")
}

func (l *kvList) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("override %q is not key=value", value)
	}
	*l = append(*l, value)
	return nil
}

// Map returns the overrides keyed by name; later entries win.
func (l kvList) Map() map[string]string {
	out := make(map[string]string, len(l))
	for _, kv := range l {
		k, v, _ := strings.Cut(kv, "=")
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

type job struct {
	run  int
	seed int64
}

type result struct {
	job
	records []telemetry.StepRecord
	live    int
	world   *sand.World
	err     error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sandbench:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML config path (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	steps := flag.Int("steps", 0, "ticks to simulate per run (0 uses the config)")
	runs := flag.Int("runs", 0, "number of seeds to run (0 uses the config)")
	workers := flag.Int("workers", 0, "worker goroutines (0 uses the config, negative uses NumCPU)")
	outDir := flag.String("out", "", "directory for steps.csv and snapshots")
	profMode := flag.String("profile", "", "profile mode: cpu, mem or allocs")
	snapshot := flag.Bool("snapshot", false, "write the final frame of each run as PNG into -out")
	var overrides kvList
	flag.Var(&overrides, "set", "world override in key=value form (repeatable)")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		return err
	}
	bench := cfg.Bench
	if *steps > 0 {
		bench.Steps = *steps
	}
	if *runs > 0 {
		bench.Runs = *runs
	}
	if *workers != 0 {
		bench.Workers = *workers
	}
	if bench.Workers < 0 {
		bench.Workers = runtime.NumCPU()
	}
	if *outDir != "" {
		bench.OutDir = *outDir
	}
	if *profMode != "" {
		bench.Profile = *profMode
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	base := cfg.SandConfig().Apply(overrides.Map())
	if bench.Profile != "" {
		mode, err := profileMode(bench.Profile)
		if err != nil {
			return err
		}
		path := bench.OutDir
		if path == "" {
			path = "."
		}
		defer profile.Start(mode, profile.ProfilePath(path), profile.NoShutdownHook).Stop()
	}

	var writer *telemetry.Writer
	if bench.OutDir != "" {
		writer, err = telemetry.CreateFile(bench.OutDir, "steps.csv")
		if err != nil {
			return err
		}
		defer writer.Close()
	}

	log.Info("starting benchmark",
		zap.Int("runs", bench.Runs),
		zap.Int("steps", bench.Steps),
		zap.Int("workers", bench.Workers),
		zap.Int("width", base.Width),
		zap.Int("height", base.Height),
	)

	start := time.Now()
	results, err := sweep(cfg, base, bench, log)
	if err != nil {
		return err
	}

	var all []telemetry.StepRecord
	var failures []error
	for _, res := range results {
		if res.err != nil {
			failures = append(failures, res.err)
			log.Error("run failed validation and was repaired", zap.Int("run", res.run), zap.Int64("seed", res.seed), zap.Error(res.err))
		}
		if err := writer.Write(res.records); err != nil {
			return err
		}
		all = append(all, res.records...)
		if *snapshot && bench.OutDir != "" {
			if err := writeSnapshot(bench.OutDir, res); err != nil {
				return err
			}
		}
	}

	sum := telemetry.Summarize(all)
	log.Info("benchmark finished",
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		zap.Int("steps", sum.Steps),
		zap.Float64("mean_us", sum.MeanDurationUS),
		zap.Float64("p95_us", sum.P95DurationUS),
		zap.Int("failures", len(failures)),
	)
	fmt.Printf("\n%-4s %-8s %-8s\n", "run", "seed", "live")
	for _, res := range results {
		fmt.Printf("%-4d %-8d %-8d\n", res.run, res.seed, res.live)
	}
	fmt.Printf("\nsteps=%d mean=%.1fus std=%.1fus p95=%.1fus max=%.1fus live=%.1f moved=%d swapped=%d killed=%d\n",
		sum.Steps, sum.MeanDurationUS, sum.StdDurationUS, sum.P95DurationUS, sum.MaxDurationUS,
		sum.MeanLive, sum.TotalMoved, sum.TotalSwapped, sum.TotalKilled)
	return errors.Join(failures...)
}

// sweep runs bench.Runs seeds across a pool of workers. Each worker loads its
// own registry so Lua hooks never share a VM between goroutines.
func sweep(cfg *config.Config, base sand.Config, bench config.BenchConfig, log *zap.Logger) ([]result, error) {
	if bench.Workers <= 0 {
		bench.Workers = 1
	}
	jobs := make(chan job)
	out := make(chan result)
	errs := make(chan error, bench.Workers)
	var wg sync.WaitGroup

	for i := 0; i < bench.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg, engine, err := cfg.LoadRegistry(log)
			if err != nil {
				errs <- err
				for range jobs {
				}
				return
			}
			if engine != nil {
				defer engine.Close()
			}
			for j := range jobs {
				out <- runScenario(base, reg, j, bench.Steps, log)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	go func() {
		for r := 0; r < bench.Runs; r++ {
			jobs <- job{run: r, seed: base.Seed + int64(r)}
		}
		close(jobs)
	}()

	var results []result
	for res := range out {
		results = append(results, res)
	}
	close(errs)
	if err := <-errs; err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].run < results[j].run })
	return results, nil
}

func runScenario(base sand.Config, reg *sand.Registry, j job, steps int, log *zap.Logger) result {
	cfg := base
	cfg.Seed = j.seed
	world := sand.NewWithConfig(cfg, sand.WithRegistry(reg), sand.WithLogger(log))
	world.Reset(j.seed)

	res := result{job: j, records: make([]telemetry.StepRecord, 0, steps), world: world}
	for i := 0; i < steps; i++ {
		start := time.Now()
		world.Step()
		res.records = append(res.records, telemetry.NewStepRecord(j.run, j.seed, world.LastStats(), time.Since(start)))
	}
	res.live = world.PartCount()
	if err := world.Repair(); err != nil {
		res.err = fmt.Errorf("run %d seed %d: %w", j.run, j.seed, err)
		res.live = world.PartCount()
	}
	return res
}

func profileMode(name string) (func(*profile.Profile), error) {
	switch name {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "allocs":
		return profile.MemProfileAllocs, nil
	}
	return nil, fmt.Errorf("unknown profile mode %q", name)
}

func writeSnapshot(dir string, res result) error {
	size := res.world.Size()
	img := render.Image(size.W, size.H, res.world.Cells(), res.world.Palette())
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("run-%03d.png", res.run)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
