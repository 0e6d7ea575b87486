package domain

import (
	"encoding/json"
	"time"

	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
)

// JSONMap is an opaque structured payload. The service stores and returns it
// but never looks inside.
type JSONMap map[string]any

// Clone returns a deep copy normalised through JSON, so numbers come back as
// float64 exactly like they do after a round trip through a database.
func (m JSONMap) Clone() JSONMap {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return JSONMap{}
	}
	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return JSONMap{}
	}
	return out
}

// OrEmpty returns a clone of m, or an empty map when m is nil.
func (m JSONMap) OrEmpty() JSONMap {
	if m == nil {
		return JSONMap{}
	}
	return m.Clone()
}

// Project is a cloud-migration project moving through the governance stages.
type Project struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	BusinessCase     string       `json:"businessCase"`
	Stage            stages.Stage `json:"stage"`
	CurrentStageData JSONMap      `json:"currentStageData"`
	ApprovalStatus   bool         `json:"approvalStatus"` // legacy flag, superseded by StageApproval
	CloudProvider    string       `json:"cloudProvider"`
}

// NewProject holds the caller-supplied fields of a project. An empty Stage
// starts the project at the first stage.
type NewProject struct {
	Name          string
	Description   string
	BusinessCase  string
	CloudProvider string
	Stage         stages.Stage
}

// ProjectPatch is a partial update; nil fields are left untouched.
type ProjectPatch struct {
	Name             *string
	Description      *string
	BusinessCase     *string
	CloudProvider    *string
	Stage            *stages.Stage
	CurrentStageData JSONMap
	ApprovalStatus   *bool
}

// Apply merges the non-nil fields of p onto a copy of proj.
func (p ProjectPatch) Apply(proj Project) Project {
	if p.Name != nil {
		proj.Name = *p.Name
	}
	if p.Description != nil {
		proj.Description = *p.Description
	}
	if p.BusinessCase != nil {
		proj.BusinessCase = *p.BusinessCase
	}
	if p.CloudProvider != nil {
		proj.CloudProvider = *p.CloudProvider
	}
	if p.Stage != nil {
		proj.Stage = *p.Stage
	}
	if p.CurrentStageData != nil {
		proj.CurrentStageData = p.CurrentStageData.Clone()
	}
	if p.ApprovalStatus != nil {
		proj.ApprovalStatus = *p.ApprovalStatus
	}
	return proj
}

// StageApproval is the latest approval decision for one (project, stage) pair.
type StageApproval struct {
	ID           int64        `json:"id"`
	ProjectID    int64        `json:"projectId"`
	Stage        stages.Stage `json:"stage"`
	Approved     bool         `json:"approved"`
	ApprovedBy   *string      `json:"approvedBy"`
	ApprovedAt   *time.Time   `json:"approvedAt"`
	Comments     *string      `json:"comments"`
	Requirements JSONMap      `json:"requirements"`
}

type NewStageApproval struct {
	ProjectID    int64
	Stage        stages.Stage
	Requirements JSONMap
	Comments     *string
}

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

type Review struct {
	ID         int64        `json:"id"`
	ProjectID  int64        `json:"projectId"`
	Stage      stages.Stage `json:"stage"`
	Status     ReviewStatus `json:"status"`
	Comments   *string      `json:"comments"`
	ReviewedBy *string      `json:"reviewedBy"`
}

type NewReview struct {
	ProjectID  int64
	Stage      stages.Stage
	Status     ReviewStatus
	Comments   *string
	ReviewedBy *string
}

type TemplateType string

const (
	TemplateArchitecture TemplateType = "architecture"
	TemplatePipeline     TemplateType = "pipeline"
	TemplateSecurity     TemplateType = "security"
)

// Template is reusable content offered to projects at a given kind of stage.
type Template struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Type    TemplateType `json:"type"`
	Content JSONMap      `json:"content"`
}

type NewTemplate struct {
	Name    string
	Type    TemplateType
	Content JSONMap
}
