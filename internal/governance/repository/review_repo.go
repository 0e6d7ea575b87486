package repository

import (
	"context"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
)

// ReviewRepository provides persistence operations for stage reviews
type ReviewRepository struct {
	store storage.Gateway
}

func NewReviewRepository(store storage.Gateway) *ReviewRepository {
	return &ReviewRepository{store: store}
}

func (r *ReviewRepository) Get(ctx context.Context, id int64) (*domain.Review, error) {
	return r.store.GetReview(ctx, id)
}

func (r *ReviewRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.Review, error) {
	return r.store.ListReviewsByProject(ctx, projectID)
}

func (r *ReviewRepository) Create(ctx context.Context, in domain.NewReview) (*domain.Review, error) {
	return r.store.CreateReview(ctx, in)
}
