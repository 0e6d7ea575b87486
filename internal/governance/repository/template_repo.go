package repository

import (
	"context"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
)

// TemplateRepository provides persistence operations for templates
type TemplateRepository struct {
	store storage.Gateway
}

func NewTemplateRepository(store storage.Gateway) *TemplateRepository {
	return &TemplateRepository{store: store}
}

func (r *TemplateRepository) Get(ctx context.Context, id int64) (*domain.Template, error) {
	return r.store.GetTemplate(ctx, id)
}

func (r *TemplateRepository) List(ctx context.Context) ([]domain.Template, error) {
	return r.store.ListTemplates(ctx)
}

func (r *TemplateRepository) Create(ctx context.Context, in domain.NewTemplate) (*domain.Template, error) {
	return r.store.CreateTemplate(ctx, in)
}
