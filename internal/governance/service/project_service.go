package service

import (
	"context"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/repository"
)

// ProjectService handles project and review business logic
type ProjectService struct {
	projects *repository.ProjectRepository
	reviews  *repository.ReviewRepository
}

// NewProjectService creates a new project service
func NewProjectService(projects *repository.ProjectRepository, reviews *repository.ReviewRepository) *ProjectService {
	return &ProjectService{
		projects: projects,
		reviews:  reviews,
	}
}

// Create creates a new project
func (s *ProjectService) Create(ctx context.Context, in domain.NewProject) (*domain.Project, error) {
	return s.projects.Create(ctx, in)
}

// List returns all projects
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.projects.List(ctx)
}

// Get returns one project
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.projects.Get(ctx, id)
}

// Update applies a partial update
func (s *ProjectService) Update(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	return s.projects.Update(ctx, id, patch)
}

// Delete removes a project
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	return s.projects.Delete(ctx, id)
}

// Reviews returns the reviews recorded for a project
func (s *ProjectService) Reviews(ctx context.Context, projectID int64) ([]domain.Review, error) {
	return s.reviews.ListByProject(ctx, projectID)
}

// GetReview returns one review
func (s *ProjectService) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	return s.reviews.Get(ctx, id)
}

// CreateReview records a review
func (s *ProjectService) CreateReview(ctx context.Context, in domain.NewReview) (*domain.Review, error) {
	return s.reviews.Create(ctx, in)
}
