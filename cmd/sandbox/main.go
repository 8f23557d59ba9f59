//go:build ebiten

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"sandfall/internal/app"
	"sandfall/internal/config"
	"sandfall/internal/sims/sand"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sandbox:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML config path (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	seed := flag.Int64("seed", 0, "scene seed (0 uses the config)")
	scale := flag.Int("scale", 0, "pixel scale (0 uses the config)")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		return err
	}
	if *seed != 0 {
		cfg.Sim.Seed = *seed
	}
	if *scale > 0 {
		cfg.Window.Scale = *scale
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	reg, engine, err := cfg.LoadRegistry(log)
	if err != nil {
		return err
	}
	if engine != nil {
		defer engine.Close()
	}

	world := sand.NewWithConfig(cfg.SandConfig(), sand.WithRegistry(reg), sand.WithLogger(log))
	session := app.NewSession(world, cfg.Sim.Seed, log)
	session.Reset(cfg.Sim.Seed)

	game := app.New(session, cfg.Window.Scale, cfg.Window.HUD)
	size := world.Size()
	ebiten.SetWindowTitle("sandfall")
	ebiten.SetTPS(cfg.Window.TPS)
	ebiten.SetWindowSize(size.W*cfg.Window.Scale+cfg.Window.HUD, size.H*cfg.Window.Scale)

	log.Info("starting sandbox", zap.Int("width", size.W), zap.Int("height", size.H), zap.Int("elements", reg.Len()))
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
