package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sandfall/internal/app"
	"sandfall/internal/config"
	"sandfall/internal/sims/sand"
	"sandfall/internal/stream"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sandserve:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "TOML config path (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	addr := flag.String("addr", "", "listen address (empty uses the config)")
	flag.Parse()

	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Stream.BindAddress = *addr
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
	srv := stream.NewServer(session, cfg.Stream, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.Stream.BindAddress, Handler: srv.Handler()}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error {
		log.Info("stream server listening", zap.String("addr", cfg.Stream.BindAddress))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down stream server")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
