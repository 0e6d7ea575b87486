package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/GoSim-25-26J-441/migration-gate/config"
	"github.com/GoSim-25-26J-441/migration-gate/internal/bootstrap"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/digest"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
)

func open(ctx context.Context) (*config.Config, *logger.Logger, storage.Gateway, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logg, err := logger.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logg, store, nil
}

// RunDigest prints the per-stage project count once as JSON.
func RunDigest(args []string) error {
	ctx := context.Background()
	_, logg, store, err := open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	defer logg.Sync()

	sum, err := digest.NewScheduler(store, logg, "").RunOnce(ctx)
	if err != nil {
		return err
	}

	byStage := make(map[string]int, len(sum.ByStage))
	for _, st := range stages.All() {
		byStage[string(st)] = sum.ByStage[st]
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Total   int            `json:"total"`
		ByStage map[string]int `json:"byStage"`
		Unknown int            `json:"unknown"`
	}{sum.Total, byStage, sum.Unknown})
}

// RunSeed loads templates from args[0], or TEMPLATES_SEED when omitted.
func RunSeed(args []string) error {
	ctx := context.Background()
	cfg, logg, store, err := open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	defer logg.Sync()

	path := cfg.App.TemplatesSeed
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("usage: worker seed <templates.yaml>")
	}
	return bootstrap.NewGovernance(store, logg, cfg.App.StrictStageGating).SeedTemplates(ctx, path, logg)
}

// RunMigrate applies the postgres schema. Opening the store migrates it,
// so the command only has to connect.
func RunMigrate(args []string) error {
	ctx := context.Background()
	cfg, logg, store, err := open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	defer logg.Sync()

	if cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate needs STORAGE_BACKEND=postgres, got %q", cfg.Storage.Backend)
	}
	logg.Info("schema applied")
	return nil
}
