// Package memory provides a process-local Gateway used for tests and
// ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
)

var _ storage.Gateway = (*Store)(nil)

type approvalKey struct {
	projectID int64
	stage     stages.Stage
}

type Store struct {
	mu sync.RWMutex

	projects  map[int64]domain.Project
	approvals map[approvalKey]domain.StageApproval
	reviews   map[int64]domain.Review
	templates map[int64]domain.Template

	nextProjectID  int64
	nextApprovalID int64
	nextReviewID   int64
	nextTemplateID int64
}

func New() *Store {
	return &Store{
		projects:  map[int64]domain.Project{},
		approvals: map[approvalKey]domain.StageApproval{},
		reviews:   map[int64]domain.Review{},
		templates: map[int64]domain.Template{},
	}
}

func (s *Store) GetProject(_ context.Context, id int64) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	out := cloneProject(p)
	return &out, nil
}

func (s *Store) ListProjects(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateProject(_ context.Context, in domain.NewProject) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextProjectID++
	p := domain.Project{
		ID:               s.nextProjectID,
		Name:             in.Name,
		Description:      in.Description,
		BusinessCase:     in.BusinessCase,
		CloudProvider:    in.CloudProvider,
		Stage:            storage.InitialStage(in.Stage),
		CurrentStageData: domain.JSONMap{},
		ApprovalStatus:   false,
	}
	s.projects[p.ID] = p

	out := cloneProject(p)
	return &out, nil
}

func (s *Store) UpdateProject(_ context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	p = patch.Apply(p)
	s.projects[id] = p

	out := cloneProject(p)
	return &out, nil
}

func (s *Store) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.projects, id)
	return nil
}

func (s *Store) GetStageApproval(_ context.Context, projectID int64, stage stages.Stage) (*domain.StageApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.approvals[approvalKey{projectID, stage}]
	if !ok {
		return nil, fmt.Errorf("approval %d/%s: %w", projectID, stage, domain.ErrNotFound)
	}
	out := cloneApproval(a)
	return &out, nil
}

func (s *Store) CreateStageApproval(_ context.Context, in domain.NewStageApproval) (*domain.StageApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := approvalKey{in.ProjectID, in.Stage}
	if _, ok := s.approvals[key]; ok {
		return nil, fmt.Errorf("approval %d/%s: %w", in.ProjectID, in.Stage, domain.ErrAlreadyExists)
	}

	s.nextApprovalID++
	a := domain.StageApproval{
		ID:           s.nextApprovalID,
		ProjectID:    in.ProjectID,
		Stage:        in.Stage,
		Comments:     cloneString(in.Comments),
		Requirements: in.Requirements.OrEmpty(),
	}
	s.approvals[key] = a

	out := cloneApproval(a)
	return &out, nil
}

func (s *Store) UpdateStageApproval(_ context.Context, a domain.StageApproval) (*domain.StageApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := approvalKey{a.ProjectID, a.Stage}
	existing, ok := s.approvals[key]
	if !ok {
		return nil, fmt.Errorf("approval %d/%s: %w", a.ProjectID, a.Stage, domain.ErrNotFound)
	}

	a.ID = existing.ID
	a.Requirements = a.Requirements.OrEmpty()
	stored := cloneApproval(a)
	s.approvals[key] = stored

	out := cloneApproval(stored)
	return &out, nil
}

func (s *Store) GetReview(_ context.Context, id int64) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %d: %w", id, domain.ErrNotFound)
	}
	out := cloneReview(r)
	return &out, nil
}

func (s *Store) ListReviewsByProject(_ context.Context, projectID int64) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Review, 0)
	for _, r := range s.reviews {
		if r.ProjectID == projectID {
			out = append(out, cloneReview(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateReview(_ context.Context, in domain.NewReview) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReviewID++
	r := domain.Review{
		ID:         s.nextReviewID,
		ProjectID:  in.ProjectID,
		Stage:      in.Stage,
		Status:     in.Status,
		Comments:   cloneString(in.Comments),
		ReviewedBy: cloneString(in.ReviewedBy),
	}
	s.reviews[r.ID] = r

	out := cloneReview(r)
	return &out, nil
}

func (s *Store) GetTemplate(_ context.Context, id int64) (*domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	out := cloneTemplate(t)
	return &out, nil
}

func (s *Store) ListTemplates(_ context.Context) ([]domain.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateTemplate(_ context.Context, in domain.NewTemplate) (*domain.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTemplateID++
	t := domain.Template{
		ID:      s.nextTemplateID,
		Name:    in.Name,
		Type:    in.Type,
		Content: in.Content.OrEmpty(),
	}
	s.templates[t.ID] = t

	out := cloneTemplate(t)
	return &out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
