package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/gin-gonic/gin"
)

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

func stageValue(field, raw string) (stages.Stage, error) {
	s, err := stages.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", &domain.ValidationError{Field: field, Reason: "unknown stage " + strconv.Quote(raw)}
	}
	return s, nil
}

// requireText trims v and rejects what is left empty.
func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", &domain.ValidationError{Field: field, Reason: "is required"}
	}
	return v, nil
}

func (h *Handler) listProjects(c *gin.Context) {
	items, err := h.projects.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) getProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) createProject(c *gin.Context) {
	var req createProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	name, err := requireText("name", req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	provider, err := requireText("cloudProvider", req.CloudProvider)
	if err != nil {
		h.fail(c, err)
		return
	}

	in := domain.NewProject{
		Name:          name,
		Description:   req.Description,
		BusinessCase:  req.BusinessCase,
		CloudProvider: provider,
	}
	if req.Stage != "" {
		s, err := stageValue("stage", req.Stage)
		if err != nil {
			h.fail(c, err)
			return
		}
		in.Stage = s
	}

	p, err := h.projects.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) updateProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}

	var req updateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if req.Stage != nil {
		h.fail(c, &domain.ValidationError{Field: "stage", Reason: "can only change through stage approval"})
		return
	}
	if req.Name != nil {
		name, err := requireText("name", *req.Name)
		if err != nil {
			h.fail(c, err)
			return
		}
		req.Name = &name
	}

	p, err := h.projects.Update(c.Request.Context(), id, domain.ProjectPatch{
		Name:             req.Name,
		Description:      req.Description,
		BusinessCase:     req.BusinessCase,
		CloudProvider:    req.CloudProvider,
		CurrentStageData: domain.JSONMap(req.CurrentStageData),
		ApprovalStatus:   req.ApprovalStatus,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) deleteProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) listReviews(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	items, err := h.projects.Reviews(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "reviews": items})
}

// approvalTarget reads the :id and :stage path parameters.
func approvalTarget(c *gin.Context) (int64, stages.Stage, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return 0, "", err
	}
	stage, err := stageValue("stage", c.Param("stage"))
	if err != nil {
		return 0, "", err
	}
	return id, stage, nil
}

func (h *Handler) getApproval(c *gin.Context) {
	id, stage, err := approvalTarget(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	a, err := h.workflow.GetStageApproval(c.Request.Context(), id, stage)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "approval": a})
}

func (h *Handler) createApproval(c *gin.Context) {
	id, stage, err := approvalTarget(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	// both fields are optional, so an empty body means {}
	var req createApprovalReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.badRequest(c, err)
			return
		}
	}

	a, err := h.workflow.CreateStageApproval(c.Request.Context(), id, stage, domain.JSONMap(req.Requirements), req.Comments)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "approval": a})
}

func (h *Handler) approveStage(c *gin.Context) {
	id, stage, err := approvalTarget(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req approveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	approvedBy, err := requireText("approvedBy", req.ApprovedBy)
	if err != nil {
		h.fail(c, err)
		return
	}

	a, err := h.workflow.ApproveStage(c.Request.Context(), id, stage, approvedBy, req.Comments)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "approval": a})
}

func (h *Handler) createReview(c *gin.Context) {
	var req createReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	stage, err := stageValue("stage", req.Stage)
	if err != nil {
		h.fail(c, err)
		return
	}

	r, err := h.projects.CreateReview(c.Request.Context(), domain.NewReview{
		ProjectID:  req.ProjectID,
		Stage:      stage,
		Status:     domain.ReviewStatus(req.Status),
		Comments:   req.Comments,
		ReviewedBy: req.ReviewedBy,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "review": r})
}

func (h *Handler) getReview(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	r, err := h.projects.GetReview(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "review": r})
}

func (h *Handler) listTemplates(c *gin.Context) {
	items, err := h.templates.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "templates": items})
}

func (h *Handler) getTemplate(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	t, err := h.templates.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "template": t})
}

func (h *Handler) createTemplate(c *gin.Context) {
	var req createTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	name, err := requireText("name", req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}

	t, err := h.templates.Create(c.Request.Context(), domain.NewTemplate{
		Name:    name,
		Type:    domain.TemplateType(req.Type),
		Content: domain.JSONMap(req.Content),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "template": t})
}
