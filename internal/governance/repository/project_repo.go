package repository

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
)

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	store storage.Gateway
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(store storage.Gateway) *ProjectRepository {
	return &ProjectRepository{store: store}
}

// Get returns the project or an error wrapping domain.ErrNotFound.
func (r *ProjectRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return r.store.GetProject(ctx, id)
}

// List returns every project.
func (r *ProjectRepository) List(ctx context.Context) ([]domain.Project, error) {
	return r.store.ListProjects(ctx)
}

// Create stores a new project at in.Stage, or at the first stage when unset.
func (r *ProjectRepository) Create(ctx context.Context, in domain.NewProject) (*domain.Project, error) {
	if in.Stage != "" && !in.Stage.Valid() {
		return nil, fmt.Errorf("create project: %w: %q", stages.ErrUnknownStage, string(in.Stage))
	}
	return r.store.CreateProject(ctx, in)
}

// Update merges patch onto the stored project.
func (r *ProjectRepository) Update(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	if patch.Stage != nil && !patch.Stage.Valid() {
		return nil, fmt.Errorf("update project: %w: %q", stages.ErrUnknownStage, string(*patch.Stage))
	}
	return r.store.UpdateProject(ctx, id, patch)
}

// Delete removes the project; deleting a missing project is not an error.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	return r.store.DeleteProject(ctx, id)
}
