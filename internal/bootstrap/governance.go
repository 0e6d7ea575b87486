package bootstrap

import (
	"context"
	"fmt"
	"os"

	govhttp "github.com/GoSim-25-26J-441/migration-gate/internal/governance/http"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/ledger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/repository"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/service"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
)

// Governance holds the services built over one storage gateway.
type Governance struct {
	Projects  *service.ProjectService
	Workflow  *service.WorkflowService
	Templates *service.TemplateService
}

func NewGovernance(store storage.Gateway, log *logger.Logger, strictGating bool) *Governance {
	projects := repository.NewProjectRepository(store)
	return &Governance{
		Projects:  service.NewProjectService(projects, repository.NewReviewRepository(store)),
		Workflow:  service.NewWorkflowService(ledger.New(store), projects, log, service.WithStrictGating(strictGating)),
		Templates: service.NewTemplateService(repository.NewTemplateRepository(store)),
	}
}

func (g *Governance) Handler(log *logger.Logger) *govhttp.Handler {
	return govhttp.New(g.Projects, g.Workflow, g.Templates, log)
}

// SeedTemplates loads the YAML file at path into an empty template store.
// An empty path is a no-op.
func (g *Governance) SeedTemplates(ctx context.Context, path string, log *logger.Logger) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open template seed: %w", err)
	}
	defer f.Close()

	n, err := g.Templates.Seed(ctx, f)
	if err != nil {
		return err
	}
	log.Info("templates seeded", "path", path, "created", n)
	return nil
}
