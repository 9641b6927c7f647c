package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mongo "note-keeper/internal/clients/mongo" // mongo client singleton
	"note-keeper/internal/config"
	"note-keeper/internal/logger"

	"github.com/grafana/pyroscope-go"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	if profiler := startProfiler(cfg, logg); profiler != nil {
		defer func() { _ = profiler.Stop() }()
	}

	_, db, err := mongo.Init(ctx, cfg, logg)
	if err != nil {
		logg.Error("mongo init", "err", err)
		os.Exit(1)
	}
	logg.Info("connected to mongo", "db", db.Name())

	svc, err := buildServices(ctx, cfg, db)
	if err != nil {
		logg.Error("service wiring failed", "err", err)
		os.Exit(1)
	}

	app, err := setupRouter(cfg, svc)
	if err != nil {
		logg.Error("router setup failed", "err", err)
		os.Exit(1)
	}

	logg.Info("starting NoteKeeper", "port", cfg.AppPort, "media_backend", cfg.MediaBackend)
	portStr := fmt.Sprintf(":%d", cfg.AppPort)

	g.Go(func() error {
		err := app.Listen(portStr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 25*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return mongo.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}

// startProfiler starts continuous profiling when a server address is set.
func startProfiler(cfg config.Config, logg *slog.Logger) *pyroscope.Profiler {
	if cfg.PyroscopeServerAddress == "" {
		return nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "note-keeper",
		ServerAddress:   cfg.PyroscopeServerAddress,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logg.Warn("profiler not started", "err", err)
		return nil
	}
	logg.Info("profiling enabled", "server", cfg.PyroscopeServerAddress)
	return profiler
}
