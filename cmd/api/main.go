package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoSim-25-26J-441/migration-gate/config"
	"github.com/GoSim-25-26J-441/migration-gate/internal/bootstrap"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/digest"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
)

const serviceName = "migration-gate"

func main() {
	if err := run(); err != nil {
		log.Printf("%s: %v", serviceName, err)
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logg, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logg.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		logg.Error("storage unavailable", "backend", cfg.Storage.Backend, "error", err)
		return err
	}
	defer store.Close()
	logg.Info("storage ready", "backend", cfg.Storage.Backend)

	gov := bootstrap.NewGovernance(store, logg, cfg.App.StrictStageGating)
	if err := gov.SeedTemplates(ctx, cfg.App.TemplatesSeed, logg); err != nil {
		logg.Error("template seed failed", "error", err)
		return err
	}

	if cfg.App.DigestCron != "" {
		sched := digest.NewScheduler(store, logg, cfg.App.DigestCron)
		if err := sched.Start(); err != nil {
			logg.Error("invalid DIGEST_CRON", "cron", cfg.App.DigestCron, "error", err)
			return err
		}
		defer sched.Stop()
	}

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		Backend:        cfg.Storage.Backend,
		Store:          store,
		Governance:     gov.Handler(logg),
		Logger:         logg,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info("listening", "addr", srv.Addr, "env", cfg.App.Environment, "strict_gating", cfg.App.StrictStageGating)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logg.Error("server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}
	logg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", "error", err)
		return err
	}
	return nil
}
