package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/ledger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/repository"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/service"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	projects := repository.NewProjectRepository(store)
	h := New(
		service.NewProjectService(projects, repository.NewReviewRepository(store)),
		service.NewWorkflowService(ledger.New(store), projects, nil),
		service.NewTemplateService(repository.NewTemplateRepository(store)),
		nil,
	)

	r := gin.New()
	h.Register(r.Group("/api"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func createProject(t *testing.T, r *gin.Engine) map[string]any {
	t.Helper()
	w, out := do(t, r, http.MethodPost, "/api/projects", gin.H{
		"name":          "Billing lift",
		"description":   "move billing to the cloud",
		"businessCase":  "cost",
		"cloudProvider": "aws",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return out["project"].(map[string]any)
}

func TestCreateProject(t *testing.T) {
	r := setupRouter(t)
	p := createProject(t, r)

	assert.Equal(t, float64(1), p["id"])
	assert.Equal(t, "intake", p["stage"])
	assert.Equal(t, false, p["approvalStatus"])
	assert.Equal(t, map[string]any{}, p["currentStageData"])
}

func TestCreateProject_Validation(t *testing.T) {
	r := setupRouter(t)

	t.Run("missing fields", func(t *testing.T) {
		w, out := do(t, r, http.MethodPost, "/api/projects", gin.H{"name": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, false, out["ok"])

		fields := out["fields"].([]any)
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.(map[string]any)["field"].(string))
		}
		assert.ElementsMatch(t, []string{"description", "businessCase", "cloudProvider"}, names)
	})

	t.Run("unknown stage", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPost, "/api/projects", gin.H{
			"name": "x", "description": "d", "businessCase": "b", "cloudProvider": "gcp", "stage": "launch",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetProject_NotFoundAndBadID(t *testing.T) {
	r := setupRouter(t)

	w, _ := do(t, r, http.MethodGet, "/api/projects/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/projects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProject(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	w, out := do(t, r, http.MethodPatch, "/api/projects/1", gin.H{
		"description":      "updated",
		"currentStageData": gin.H{"owner": "ops"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	p := out["project"].(map[string]any)
	assert.Equal(t, "updated", p["description"])
	assert.Equal(t, "Billing lift", p["name"])
	assert.Equal(t, map[string]any{"owner": "ops"}, p["currentStageData"])

	w, _ = do(t, r, http.MethodPatch, "/api/projects/1", gin.H{"stage": "production"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPatch, "/api/projects/9", gin.H{"name": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProject_Idempotent(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	for i := 0; i < 2; i++ {
		w, out := do(t, r, http.MethodDelete, "/api/projects/1", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, out["ok"])
	}

	w, _ := do(t, r, http.MethodGet, "/api/projects/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApprovalFlow(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	w, _ := do(t, r, http.MethodGet, "/api/projects/1/stages/intake/approval", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out := do(t, r, http.MethodPost, "/api/projects/1/stages/intake/approval", gin.H{
		"requirements": gin.H{"signoff": "cto"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	a := out["approval"].(map[string]any)
	assert.Equal(t, false, a["approved"])
	assert.Nil(t, a["approvedAt"])

	w, _ = do(t, r, http.MethodPost, "/api/projects/1/stages/intake/approval", gin.H{})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, out = do(t, r, http.MethodPost, "/api/projects/1/stages/intake/approve", gin.H{
		"approvedBy": "alice",
		"comments":   "ok",
	})
	require.Equal(t, http.StatusOK, w.Code)
	a = out["approval"].(map[string]any)
	assert.Equal(t, true, a["approved"])
	assert.Equal(t, "alice", a["approvedBy"])
	assert.Equal(t, "ok", a["comments"])
	assert.NotNil(t, a["approvedAt"])
	assert.Equal(t, map[string]any{"signoff": "cto"}, a["requirements"])

	_, out = do(t, r, http.MethodGet, "/api/projects/1", nil)
	assert.Equal(t, "design", out["project"].(map[string]any)["stage"])
}

func TestApproveStage_Validation(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	w, _ := do(t, r, http.MethodPost, "/api/projects/1/stages/launch/approve", gin.H{"approvedBy": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := do(t, r, http.MethodPost, "/api/projects/1/stages/intake/approve", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := out["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "approvedBy", fields[0].(map[string]any)["field"])
}

func TestApproveStage_MissingProjectStillRecords(t *testing.T) {
	r := setupRouter(t)

	w, out := do(t, r, http.MethodPost, "/api/projects/7/stages/design/approve", gin.H{"approvedBy": "bob"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), out["approval"].(map[string]any)["projectId"])

	w, _ = do(t, r, http.MethodGet, "/api/projects/7/stages/design/approval", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReviews(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	w, out := do(t, r, http.MethodPost, "/api/reviews", gin.H{
		"projectId": 1, "stage": "design", "status": "approved", "reviewedBy": "carol",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "approved", out["review"].(map[string]any)["status"])

	w, _ = do(t, r, http.MethodPost, "/api/reviews", gin.H{
		"projectId": 1, "stage": "design", "status": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = do(t, r, http.MethodGet, "/api/projects/1/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["reviews"], 1)

	w, _ = do(t, r, http.MethodGet, "/api/reviews/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/reviews/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplates(t *testing.T) {
	r := setupRouter(t)

	w, out := do(t, r, http.MethodPost, "/api/templates", gin.H{
		"name": "three-tier", "type": "architecture", "content": gin.H{"tiers": 3},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, map[string]any{"tiers": float64(3)}, out["template"].(map[string]any)["content"])

	w, _ = do(t, r, http.MethodPost, "/api/templates", gin.H{
		"name": "x", "type": "network", "content": gin.H{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = do(t, r, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["templates"], 1)

	w, _ = do(t, r, http.MethodGet, "/api/templates/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBlankTextFieldsRejected(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	cases := []struct {
		name, method, path, field string
		body                      gin.H
	}{
		{"approver", http.MethodPost, "/api/projects/1/stages/intake/approve", "approvedBy", gin.H{"approvedBy": "   "}},
		{"project name", http.MethodPost, "/api/projects", "name", gin.H{
			"name": " \t", "description": "d", "businessCase": "b", "cloudProvider": "aws",
		}},
		{"patched name", http.MethodPatch, "/api/projects/1", "name", gin.H{"name": "  "}},
		{"template name", http.MethodPost, "/api/templates", "name", gin.H{
			"name": "  ", "type": "security", "content": gin.H{},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, out := do(t, r, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			fields := out["fields"].([]any)
			require.Len(t, fields, 1)
			assert.Equal(t, tc.field, fields[0].(map[string]any)["field"])
		})
	}

	w, _ := do(t, r, http.MethodGet, "/api/projects/1/stages/intake/approval", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, out := do(t, r, http.MethodGet, "/api/projects/1", nil)
	p := out["project"].(map[string]any)
	assert.Equal(t, "intake", p["stage"])
	assert.Equal(t, "Billing lift", p["name"])
}

func TestCreateApproval_EmptyBody(t *testing.T) {
	r := setupRouter(t)
	createProject(t, r)

	w, out := do(t, r, http.MethodPost, "/api/projects/1/stages/design/approval", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	a := out["approval"].(map[string]any)
	assert.Equal(t, false, a["approved"])
	assert.Equal(t, map[string]any{}, a["requirements"])
	assert.Nil(t, a["comments"])
}
