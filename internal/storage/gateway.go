// Package storage defines the persistence contract shared by every backend.
//
// All backends must behave identically: ids are assigned per entity kind
// starting at 1 and never reused, lists come back in ascending id order,
// lookups of missing records fail with domain.ErrNotFound, and project
// deletion is idempotent.
package storage

import (
	"context"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
)

type Gateway interface {
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	CreateProject(ctx context.Context, in domain.NewProject) (*domain.Project, error)
	UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	GetStageApproval(ctx context.Context, projectID int64, stage stages.Stage) (*domain.StageApproval, error)
	CreateStageApproval(ctx context.Context, in domain.NewStageApproval) (*domain.StageApproval, error)
	UpdateStageApproval(ctx context.Context, a domain.StageApproval) (*domain.StageApproval, error)

	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	ListReviewsByProject(ctx context.Context, projectID int64) ([]domain.Review, error)
	CreateReview(ctx context.Context, in domain.NewReview) (*domain.Review, error)

	GetTemplate(ctx context.Context, id int64) (*domain.Template, error)
	ListTemplates(ctx context.Context) ([]domain.Template, error)
	CreateTemplate(ctx context.Context, in domain.NewTemplate) (*domain.Template, error)

	Ping(ctx context.Context) error
	Close() error
}

// InitialStage resolves the stage a new project starts at.
func InitialStage(s stages.Stage) stages.Stage {
	if s == "" {
		return stages.First()
	}
	return s
}
