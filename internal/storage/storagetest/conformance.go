// Package storagetest holds the conformance suite every storage.Gateway
// backend must pass.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty gateway. It is called once per subtest.
type Factory func(t *testing.T) storage.Gateway

func strPtr(s string) *string { return &s }

func newProject(name string) domain.NewProject {
	return domain.NewProject{
		Name:          name,
		Description:   name + " description",
		BusinessCase:  "reduce datacenter spend",
		CloudProvider: "aws",
	}
}

// Run executes the conformance suite against gateways built by newGateway.
func Run(t *testing.T, newGateway Factory) {
	t.Run("projects", func(t *testing.T) { testProjects(t, newGateway) })
	t.Run("stage approvals", func(t *testing.T) { testApprovals(t, newGateway) })
	t.Run("reviews", func(t *testing.T) { testReviews(t, newGateway) })
	t.Run("templates", func(t *testing.T) { testTemplates(t, newGateway) })
	t.Run("ping", func(t *testing.T) {
		require.NoError(t, newGateway(t).Ping(context.Background()))
	})
}

func testProjects(t *testing.T, newGateway Factory) {
	ctx := context.Background()

	t.Run("create assigns increasing ids and defaults", func(t *testing.T) {
		gw := newGateway(t)

		a, err := gw.CreateProject(ctx, newProject("alpha"))
		require.NoError(t, err)
		b, err := gw.CreateProject(ctx, newProject("beta"))
		require.NoError(t, err)

		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(2), b.ID)
		assert.Equal(t, stages.Intake, a.Stage)
		assert.False(t, a.ApprovalStatus)
		assert.NotNil(t, a.CurrentStageData)
		assert.Empty(t, a.CurrentStageData)
		assert.Equal(t, "alpha", a.Name)
		assert.Equal(t, "alpha description", a.Description)
		assert.Equal(t, "reduce datacenter spend", a.BusinessCase)
		assert.Equal(t, "aws", a.CloudProvider)
	})

	t.Run("create keeps an explicit stage", func(t *testing.T) {
		gw := newGateway(t)
		in := newProject("late")
		in.Stage = stages.Production

		p, err := gw.CreateProject(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, stages.Production, p.Stage)
	})

	t.Run("get returns the stored entity", func(t *testing.T) {
		gw := newGateway(t)
		created, err := gw.CreateProject(ctx, newProject("alpha"))
		require.NoError(t, err)

		got, err := gw.GetProject(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("get missing is not found", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.GetProject(ctx, 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list contains every project once in id order", func(t *testing.T) {
		gw := newGateway(t)
		empty, err := gw.ListProjects(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, n := range []string{"a", "b", "c"} {
			_, err := gw.CreateProject(ctx, newProject(n))
			require.NoError(t, err)
		}

		items, err := gw.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, items, 3)
		for i, p := range items {
			assert.Equal(t, int64(i+1), p.ID)
		}
	})

	t.Run("update merges only supplied fields", func(t *testing.T) {
		gw := newGateway(t)
		created, err := gw.CreateProject(ctx, newProject("alpha"))
		require.NoError(t, err)

		stage := stages.Design
		approved := true
		updated, err := gw.UpdateProject(ctx, created.ID, domain.ProjectPatch{
			Name:             strPtr("alpha-2"),
			Stage:            &stage,
			ApprovalStatus:   &approved,
			CurrentStageData: domain.JSONMap{"diagram": "v1", "services": 3},
		})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "alpha-2", updated.Name)
		assert.Equal(t, stages.Design, updated.Stage)
		assert.True(t, updated.ApprovalStatus)
		assert.Equal(t, domain.JSONMap{"diagram": "v1", "services": float64(3)}, updated.CurrentStageData)
		assert.Equal(t, created.Description, updated.Description)
		assert.Equal(t, created.BusinessCase, updated.BusinessCase)
		assert.Equal(t, created.CloudProvider, updated.CloudProvider)

		got, err := gw.GetProject(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("update missing is not found", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.UpdateProject(ctx, 999, domain.ProjectPatch{Name: strPtr("x")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete is idempotent and ids are not reused", func(t *testing.T) {
		gw := newGateway(t)
		p, err := gw.CreateProject(ctx, newProject("gone"))
		require.NoError(t, err)

		require.NoError(t, gw.DeleteProject(ctx, p.ID))
		require.NoError(t, gw.DeleteProject(ctx, p.ID))
		require.NoError(t, gw.DeleteProject(ctx, 12345))

		_, err = gw.GetProject(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = gw.UpdateProject(ctx, p.ID, domain.ProjectPatch{Name: strPtr("back")})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		next, err := gw.CreateProject(ctx, newProject("next"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), next.ID)

		items, err := gw.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, next.ID, items[0].ID)
	})
}

func testApprovals(t *testing.T, newGateway Factory) {
	ctx := context.Background()

	t.Run("get before create is not found", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.GetStageApproval(ctx, 1, stages.Security)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("create initialises an unapproved record", func(t *testing.T) {
		gw := newGateway(t)
		a, err := gw.CreateStageApproval(ctx, domain.NewStageApproval{
			ProjectID:    7,
			Stage:        stages.Pricing,
			Requirements: domain.JSONMap{"budget": "signed"},
			Comments:     strPtr("needs finance"),
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(7), a.ProjectID)
		assert.Equal(t, stages.Pricing, a.Stage)
		assert.False(t, a.Approved)
		assert.Nil(t, a.ApprovedBy)
		assert.Nil(t, a.ApprovedAt)
		require.NotNil(t, a.Comments)
		assert.Equal(t, "needs finance", *a.Comments)
		assert.Equal(t, domain.JSONMap{"budget": "signed"}, a.Requirements)

		got, err := gw.GetStageApproval(ctx, 7, stages.Pricing)
		require.NoError(t, err)
		assert.Equal(t, a, got)
	})

	t.Run("create without requirements stores an empty payload", func(t *testing.T) {
		gw := newGateway(t)
		a, err := gw.CreateStageApproval(ctx, domain.NewStageApproval{ProjectID: 1, Stage: stages.Intake})
		require.NoError(t, err)
		assert.NotNil(t, a.Requirements)
		assert.Empty(t, a.Requirements)
		assert.Nil(t, a.Comments)
	})

	t.Run("second create for the same pair already exists", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.CreateStageApproval(ctx, domain.NewStageApproval{ProjectID: 1, Stage: stages.Design})
		require.NoError(t, err)

		_, err = gw.CreateStageApproval(ctx, domain.NewStageApproval{ProjectID: 1, Stage: stages.Design})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)

		other, err := gw.CreateStageApproval(ctx, domain.NewStageApproval{ProjectID: 1, Stage: stages.Pricing})
		require.NoError(t, err)
		assert.Equal(t, int64(2), other.ID)
	})

	t.Run("update replaces the record for the pair", func(t *testing.T) {
		gw := newGateway(t)
		created, err := gw.CreateStageApproval(ctx, domain.NewStageApproval{ProjectID: 3, Stage: stages.Security})
		require.NoError(t, err)

		at := time.Date(2026, 3, 4, 5, 6, 7, 8000, time.UTC)
		next := *created
		next.Approved = true
		next.ApprovedBy = strPtr("alice")
		next.ApprovedAt = &at
		next.Comments = strPtr("ok")

		updated, err := gw.UpdateStageApproval(ctx, next)
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, updated.Approved)
		require.NotNil(t, updated.ApprovedBy)
		assert.Equal(t, "alice", *updated.ApprovedBy)
		require.NotNil(t, updated.ApprovedAt)
		assert.True(t, at.Equal(*updated.ApprovedAt))

		got, err := gw.GetStageApproval(ctx, 3, stages.Security)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("update missing pair is not found", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.UpdateStageApproval(ctx, domain.StageApproval{ProjectID: 3, Stage: stages.Security, Approved: true})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func testReviews(t *testing.T, newGateway Factory) {
	ctx := context.Background()

	t.Run("create, get and list by project", func(t *testing.T) {
		gw := newGateway(t)

		r1, err := gw.CreateReview(ctx, domain.NewReview{ProjectID: 1, Stage: stages.Design, Status: domain.ReviewPending})
		require.NoError(t, err)
		_, err = gw.CreateReview(ctx, domain.NewReview{ProjectID: 2, Stage: stages.Design, Status: domain.ReviewRejected})
		require.NoError(t, err)
		r3, err := gw.CreateReview(ctx, domain.NewReview{
			ProjectID:  1,
			Stage:      stages.Pricing,
			Status:     domain.ReviewApproved,
			Comments:   strPtr("fine"),
			ReviewedBy: strPtr("carol"),
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), r1.ID)
		assert.Equal(t, int64(3), r3.ID)
		assert.Nil(t, r1.Comments)

		got, err := gw.GetReview(ctx, r3.ID)
		require.NoError(t, err)
		assert.Equal(t, r3, got)

		list, err := gw.ListReviewsByProject(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, *r1, list[0])
		assert.Equal(t, *r3, list[1])

		none, err := gw.ListReviewsByProject(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("get missing is not found", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.GetReview(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func testTemplates(t *testing.T, newGateway Factory) {
	ctx := context.Background()

	t.Run("create, get and list", func(t *testing.T) {
		gw := newGateway(t)

		a, err := gw.CreateTemplate(ctx, domain.NewTemplate{
			Name:    "three-tier",
			Type:    domain.TemplateArchitecture,
			Content: domain.JSONMap{"tiers": []any{"web", "app", "db"}},
		})
		require.NoError(t, err)
		b, err := gw.CreateTemplate(ctx, domain.NewTemplate{Name: "ci", Type: domain.TemplatePipeline})
		require.NoError(t, err)

		assert.Equal(t, int64(1), a.ID)
		assert.Equal(t, int64(2), b.ID)
		assert.Equal(t, domain.JSONMap{"tiers": []any{"web", "app", "db"}}, a.Content)
		assert.NotNil(t, b.Content)

		got, err := gw.GetTemplate(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a, got)

		list, err := gw.ListTemplates(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, *a, list[0])
		assert.Equal(t, *b, list[1])
	})

	t.Run("get missing is not found", func(t *testing.T) {
		gw := newGateway(t)
		_, err := gw.GetTemplate(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

// Step is one entry of a Script transcript: the value returned by an
// operation or the sentinel it failed with.
type Step struct {
	Op     string
	Result any
	Err    error
}

func sentinel(err error) error {
	for _, s := range []error{domain.ErrNotFound, domain.ErrAlreadyExists, domain.ErrStorageUnavailable} {
		if errors.Is(err, s) {
			return s
		}
	}
	return err
}

// Script runs a fixed sequence of operations against gw and records what
// each returned. Two conforming backends produce equal transcripts.
func Script(ctx context.Context, gw storage.Gateway) []Step {
	var out []Step
	record := func(op string, res any, err error) {
		out = append(out, Step{Op: op, Result: res, Err: sentinel(err)})
	}

	p1, err := gw.CreateProject(ctx, newProject("payments"))
	record("create project", p1, err)
	p2, err := gw.CreateProject(ctx, domain.NewProject{Name: "edge", Stage: stages.Security, CloudProvider: "gcp"})
	record("create project", p2, err)

	res, err := gw.GetProject(ctx, 999)
	record("get missing project", res, err)

	design := stages.Design
	res, err = gw.UpdateProject(ctx, 1, domain.ProjectPatch{Stage: &design, CurrentStageData: domain.JSONMap{"step": 1}})
	record("update project", res, err)
	res, err = gw.UpdateProject(ctx, 999, domain.ProjectPatch{Name: strPtr("x")})
	record("update missing project", res, err)

	a, err := gw.CreateStageApproval(ctx, domain.NewStageApproval{ProjectID: 1, Stage: stages.Intake, Comments: strPtr("first")})
	record("create approval", a, err)
	a, err = gw.CreateStageApproval(ctx, domain.NewStageApproval{ProjectID: 1, Stage: stages.Intake})
	record("duplicate approval", a, err)
	a, err = gw.GetStageApproval(ctx, 1, stages.Security)
	record("get missing approval", a, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a, err = gw.UpdateStageApproval(ctx, domain.StageApproval{
		ProjectID:  1,
		Stage:      stages.Intake,
		Approved:   true,
		ApprovedBy: strPtr("alice"),
		ApprovedAt: &at,
		Comments:   strPtr("first"),
	})
	record("approve", a, err)

	r, err := gw.CreateReview(ctx, domain.NewReview{ProjectID: 1, Stage: stages.Design, Status: domain.ReviewPending})
	record("create review", r, err)
	rs, err := gw.ListReviewsByProject(ctx, 1)
	record("list reviews", rs, err)

	tp, err := gw.CreateTemplate(ctx, domain.NewTemplate{Name: "baseline", Type: domain.TemplateSecurity, Content: domain.JSONMap{"cis": true}})
	record("create template", tp, err)
	ts, err := gw.ListTemplates(ctx)
	record("list templates", ts, err)

	record("delete project", nil, gw.DeleteProject(ctx, 2))
	record("delete missing project", nil, gw.DeleteProject(ctx, 2))
	ps, err := gw.ListProjects(ctx)
	record("list projects", ps, err)

	return out
}
