package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/crowd-maze/internal/config"
	"github.com/DoyleJ11/crowd-maze/internal/engine"
	"github.com/DoyleJ11/crowd-maze/internal/httpapi"
	"github.com/DoyleJ11/crowd-maze/internal/hub"
	"github.com/DoyleJ11/crowd-maze/internal/logger"
	"github.com/DoyleJ11/crowd-maze/internal/maze"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	lg.Info("starting", zap.String("addr", cfg.HTTPAddr), zap.Int64("seed", seed))

	g, gctx := errgroup.WithContext(ctx)

	// The hub outlives gctx so in-flight requests can still reach it while
	// the HTTP server drains.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	h := hub.NewHub(hubCtx, hub.Config{
		NewMachine: machineFactory(cfg, seed),
		Session:    cfg.Session,
	}, lg)

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.SetupRoutes(h, lg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		lg.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopHub()
		<-h.Done()
		return err
	})
	return g.Wait()
}

// machineFactory gives every session its own random source. The factory
// itself only runs on the hub goroutine, so the seed source is not shared.
func machineFactory(cfg config.Config, seed int64) hub.MachineFactory {
	seeds := rand.New(rand.NewSource(seed))
	return func() (*engine.Machine, error) {
		rng := rand.New(rand.NewSource(seeds.Int63()))
		gen, err := maze.NewGenerator(cfg.Maze, rng)
		if err != nil {
			return nil, err
		}
		return engine.NewMachine(cfg.Engine, gen, rng)
	}
}
