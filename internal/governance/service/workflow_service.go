package service

import (
	"context"
	"errors"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/ledger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/repository"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
)

// WorkflowService records stage approvals and moves projects forward.
//
// Approval and advancement are two separate storage writes with nothing
// tying them together: a failure or a concurrent request between them can
// leave an approved record without the matching stage change.
type WorkflowService struct {
	ledger   *ledger.ApprovalLedger
	projects *repository.ProjectRepository
	log      *logger.Logger
	strict   bool
}

type WorkflowOption func(*WorkflowService)

// WithStrictGating only advances a project when the approved stage is the
// stage the project is currently at. Off by default: any approval advances
// the project by one stage from wherever it is.
func WithStrictGating(strict bool) WorkflowOption {
	return func(s *WorkflowService) { s.strict = strict }
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(l *ledger.ApprovalLedger, projects *repository.ProjectRepository, log *logger.Logger, opts ...WorkflowOption) *WorkflowService {
	if log == nil {
		log = logger.Nop()
	}
	s := &WorkflowService{
		ledger:   l,
		projects: projects,
		log:      log.With("component", "workflow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetStageApproval returns the approval record for the pair.
func (s *WorkflowService) GetStageApproval(ctx context.Context, projectID int64, stage stages.Stage) (*domain.StageApproval, error) {
	return s.ledger.Get(ctx, projectID, stage)
}

// CreateStageApproval opens an unapproved record for the pair.
func (s *WorkflowService) CreateStageApproval(ctx context.Context, projectID int64, stage stages.Stage, requirements domain.JSONMap, comments *string) (*domain.StageApproval, error) {
	return s.ledger.Create(ctx, projectID, stage, requirements, comments)
}

// ApproveStage approves stage for the project and then advances the
// project one step from its current stage. The approval is returned even
// when no advancement happens (project gone, already terminal, or strict
// gating with a mismatched stage).
func (s *WorkflowService) ApproveStage(ctx context.Context, projectID int64, stage stages.Stage, approvedBy, comments string) (*domain.StageApproval, error) {
	approval, err := s.ledger.Approve(ctx, projectID, stage, approvedBy, comments)
	if err != nil {
		return nil, err
	}

	project, err := s.projects.Get(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("stage approved for missing project; not advancing",
			"project_id", projectID, "stage", stage)
		return approval, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := stages.IndexOf(project.Stage); err != nil {
		return nil, err
	}

	if s.strict && project.Stage != stage {
		s.log.Info("approved stage is not the current stage; not advancing",
			"project_id", projectID, "stage", stage, "current_stage", project.Stage)
		return approval, nil
	}

	next, ok := stages.Next(project.Stage)
	if !ok {
		s.log.Debug("project already at terminal stage", "project_id", projectID, "stage", project.Stage)
		return approval, nil
	}

	if _, err := s.projects.Update(ctx, projectID, domain.ProjectPatch{Stage: &next}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("project deleted before advancement", "project_id", projectID)
			return approval, nil
		}
		return nil, err
	}

	s.log.Info("project advanced",
		"project_id", projectID, "approved_stage", stage, "from", project.Stage, "to", next, "approved_by", approvedBy)
	return approval, nil
}
