package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/ledger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/repository"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage/memory"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	name string
	open func(t *testing.T) storage.Gateway
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) storage.Gateway { return memory.New() }},
		{"redis", func(t *testing.T) storage.Gateway {
			mr, err := miniredis.Run()
			require.NoError(t, err)
			t.Cleanup(mr.Close)
			s := redisstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
			t.Cleanup(func() { _ = s.Close() })
			return s
		}},
	}
}

type fixture struct {
	store    storage.Gateway
	projects *repository.ProjectRepository
	workflow *WorkflowService
}

func newFixture(store storage.Gateway, opts ...WorkflowOption) fixture {
	projects := repository.NewProjectRepository(store)
	return fixture{
		store:    store,
		projects: projects,
		workflow: NewWorkflowService(ledger.New(store), projects, logger.Nop(), opts...),
	}
}

func (f fixture) createProject(t *testing.T, stage stages.Stage) *domain.Project {
	t.Helper()
	p, err := f.projects.Create(context.Background(), domain.NewProject{
		Name:          "datacenter exit",
		Description:   "lift and shift",
		BusinessCase:  "lease ends",
		CloudProvider: "azure",
		Stage:         stage,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) stageOf(t *testing.T, id int64) stages.Stage {
	t.Helper()
	p, err := f.projects.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stage
}

func TestWorkflowService_ApproveStage(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			t.Run("approval advances from intake to design then pricing", func(t *testing.T) {
				f := newFixture(b.open(t))
				p := f.createProject(t, "")
				require.Equal(t, stages.Intake, p.Stage)

				a, err := f.workflow.ApproveStage(ctx, p.ID, stages.Intake, "alice", "ok")
				require.NoError(t, err)
				assert.True(t, a.Approved)
				assert.Equal(t, "alice", *a.ApprovedBy)
				assert.Equal(t, stages.Design, f.stageOf(t, p.ID))

				a, err = f.workflow.ApproveStage(ctx, p.ID, stages.Intake, "alice", "amended")
				require.NoError(t, err)
				assert.True(t, a.Approved)
				assert.Equal(t, "amended", *a.Comments)
				assert.Equal(t, stages.Pricing, f.stageOf(t, p.ID))
			})

			t.Run("concurrent approvals of one stage all succeed", func(t *testing.T) {
				f := newFixture(b.open(t))
				p := f.createProject(t, "")

				const workers = 5
				errs := make(chan error, workers)
				var wg sync.WaitGroup
				for i := 0; i < workers; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := f.workflow.ApproveStage(ctx, p.ID, stages.Intake, "erin", "")
						errs <- err
					}()
				}
				wg.Wait()
				close(errs)

				for err := range errs {
					assert.NoError(t, err)
				}

				a, err := f.workflow.GetStageApproval(ctx, p.ID, stages.Intake)
				require.NoError(t, err)
				assert.True(t, a.Approved)

				// each approval reads then advances, so racing workers may
				// collapse onto the same step
				idx, err := stages.IndexOf(f.stageOf(t, p.ID))
				require.NoError(t, err)
				assert.GreaterOrEqual(t, idx, 1)
				assert.LessOrEqual(t, idx, workers)
			})

			t.Run("terminal stage stays put", func(t *testing.T) {
				f := newFixture(b.open(t))
				p := f.createProject(t, stages.Production)

				a, err := f.workflow.ApproveStage(ctx, p.ID, stages.Production, "bob", "")
				require.NoError(t, err)
				assert.True(t, a.Approved)
				assert.Nil(t, a.Comments)
				assert.Equal(t, stages.Production, f.stageOf(t, p.ID))
			})

			t.Run("any stage argument advances the current stage by one", func(t *testing.T) {
				for _, current := range stages.All() {
					if stages.IsTerminal(current) {
						continue
					}
					for _, approved := range []stages.Stage{stages.Intake, current, stages.Production} {
						f := newFixture(b.open(t))
						p := f.createProject(t, current)

						_, err := f.workflow.ApproveStage(ctx, p.ID, approved, "carol", "")
						require.NoError(t, err)

						want, _ := stages.Next(current)
						assert.Equal(t, want, f.stageOf(t, p.ID), "current=%s approved=%s", current, approved)
					}
				}
			})

			t.Run("missing project still records the approval", func(t *testing.T) {
				f := newFixture(b.open(t))

				a, err := f.workflow.ApproveStage(ctx, 404, stages.Design, "dave", "")
				require.NoError(t, err)
				assert.True(t, a.Approved)

				got, err := f.workflow.GetStageApproval(ctx, 404, stages.Design)
				require.NoError(t, err)
				assert.True(t, got.Approved)

				_, err = f.projects.Get(ctx, 404)
				assert.ErrorIs(t, err, domain.ErrNotFound)
			})

			t.Run("stage never approved is not found", func(t *testing.T) {
				f := newFixture(b.open(t))
				p := f.createProject(t, "")

				_, err := f.workflow.GetStageApproval(ctx, p.ID, stages.Security)
				assert.ErrorIs(t, err, domain.ErrNotFound)
			})

			t.Run("explicit create then duplicate create", func(t *testing.T) {
				f := newFixture(b.open(t))
				p := f.createProject(t, "")

				a, err := f.workflow.CreateStageApproval(ctx, p.ID, stages.Design, domain.JSONMap{"hld": "pending"}, nil)
				require.NoError(t, err)
				assert.False(t, a.Approved)

				_, err = f.workflow.CreateStageApproval(ctx, p.ID, stages.Design, nil, nil)
				assert.ErrorIs(t, err, domain.ErrAlreadyExists)

				approved, err := f.workflow.ApproveStage(ctx, p.ID, stages.Design, "erin", "")
				require.NoError(t, err)
				assert.Equal(t, a.ID, approved.ID)
				assert.Equal(t, domain.JSONMap{"hld": "pending"}, approved.Requirements)
			})
		})
	}
}

func TestWorkflowService_StrictGating(t *testing.T) {
	ctx := context.Background()
	f := newFixture(memory.New(), WithStrictGating(true))
	p := f.createProject(t, stages.Design)

	a, err := f.workflow.ApproveStage(ctx, p.ID, stages.Intake, "alice", "")
	require.NoError(t, err)
	assert.True(t, a.Approved)
	assert.Equal(t, stages.Design, f.stageOf(t, p.ID))

	_, err = f.workflow.ApproveStage(ctx, p.ID, stages.Design, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, stages.Pricing, f.stageOf(t, p.ID))
}

type brokenProjects struct {
	storage.Gateway
	err error
}

func (b brokenProjects) GetProject(context.Context, int64) (*domain.Project, error) {
	return nil, b.err
}

func TestWorkflowService_PropagatesStorageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.Join(domain.ErrStorageUnavailable, errors.New("connection refused"))
	f := newFixture(brokenProjects{Gateway: memory.New(), err: boom})

	_, err := f.workflow.ApproveStage(ctx, 1, stages.Intake, "alice", "")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestWorkflowService_UnknownCurrentStage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	f := newFixture(store)

	p := f.createProject(t, "")
	corrupt := stages.Stage("uat")
	_, err := store.UpdateProject(ctx, p.ID, domain.ProjectPatch{Stage: &corrupt})
	require.NoError(t, err)

	_, err = f.workflow.ApproveStage(ctx, p.ID, stages.Intake, "alice", "")
	assert.ErrorIs(t, err, stages.ErrUnknownStage)
}
