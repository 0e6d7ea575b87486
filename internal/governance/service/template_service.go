package service

import (
	"context"
	"fmt"
	"io"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/repository"
	"gopkg.in/yaml.v3"
)

// TemplateService serves reusable stage templates
type TemplateService struct {
	repo *repository.TemplateRepository
}

func NewTemplateService(repo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

func (s *TemplateService) List(ctx context.Context) ([]domain.Template, error) {
	return s.repo.List(ctx)
}

func (s *TemplateService) Get(ctx context.Context, id int64) (*domain.Template, error) {
	return s.repo.Get(ctx, id)
}

func (s *TemplateService) Create(ctx context.Context, in domain.NewTemplate) (*domain.Template, error) {
	return s.repo.Create(ctx, in)
}

type seedFile struct {
	Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"`
	Content map[string]any `yaml:"content"`
}

// Seed loads templates from a YAML document of the form
//
//	templates:
//	  - name: three-tier
//	    type: architecture
//	    content: {...}
//
// into an empty store. It returns how many templates were created; a store
// that already has templates is left alone.
func (s *TemplateService) Seed(ctx context.Context, r io.Reader) (int, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return 0, fmt.Errorf("decode template seed: %w", err)
	}

	batch := make([]domain.NewTemplate, 0, len(file.Templates))
	for i, t := range file.Templates {
		kind := domain.TemplateType(t.Type)
		switch kind {
		case domain.TemplateArchitecture, domain.TemplatePipeline, domain.TemplateSecurity:
		default:
			return 0, &domain.ValidationError{Field: fmt.Sprintf("templates[%d].type", i), Reason: fmt.Sprintf("unknown template type %q", t.Type)}
		}
		if t.Name == "" {
			return 0, &domain.ValidationError{Field: fmt.Sprintf("templates[%d].name", i), Reason: "is required"}
		}
		batch = append(batch, domain.NewTemplate{Name: t.Name, Type: kind, Content: domain.JSONMap(t.Content)})
	}

	for i, in := range batch {
		if _, err := s.repo.Create(ctx, in); err != nil {
			return i, err
		}
	}
	return len(batch), nil
}
