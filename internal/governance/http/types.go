package http

import (
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/service"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
)

// Handler bundles the dependencies for governance HTTP endpoints.
type Handler struct {
	projects  *service.ProjectService
	workflow  *service.WorkflowService
	templates *service.TemplateService
	log       *logger.Logger
}

func New(projects *service.ProjectService, workflow *service.WorkflowService, templates *service.TemplateService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		projects:  projects,
		workflow:  workflow,
		templates: templates,
		log:       log.With("component", "http"),
	}
}

type createProjectReq struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description" binding:"required"`
	BusinessCase  string `json:"businessCase" binding:"required"`
	CloudProvider string `json:"cloudProvider" binding:"required"`
	Stage         string `json:"stage"`
}

// Stage is only accepted so a request trying to set it can be rejected.
type updateProjectReq struct {
	Name             *string        `json:"name"`
	Description      *string        `json:"description"`
	BusinessCase     *string        `json:"businessCase"`
	CloudProvider    *string        `json:"cloudProvider"`
	CurrentStageData map[string]any `json:"currentStageData"`
	ApprovalStatus   *bool          `json:"approvalStatus"`
	Stage            *string        `json:"stage"`
}

type createApprovalReq struct {
	Requirements map[string]any `json:"requirements"`
	Comments     *string        `json:"comments"`
}

type approveReq struct {
	ApprovedBy string `json:"approvedBy" binding:"required"`
	Comments   string `json:"comments"`
}

type createReviewReq struct {
	ProjectID  int64   `json:"projectId" binding:"required,gt=0"`
	Stage      string  `json:"stage" binding:"required"`
	Status     string  `json:"status" binding:"required,oneof=pending approved rejected"`
	Comments   *string `json:"comments"`
	ReviewedBy *string `json:"reviewedBy"`
}

type createTemplateReq struct {
	Name    string         `json:"name" binding:"required"`
	Type    string         `json:"type" binding:"required,oneof=architecture pipeline security"`
	Content map[string]any `json:"content" binding:"required"`
}

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}
