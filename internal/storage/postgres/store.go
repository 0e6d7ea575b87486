// Package postgres is the durable storage.Gateway backed by PostgreSQL
// through a pgx connection pool.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Gateway = (*Store)(nil)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type Store struct {
	db *pgxpool.Pool
}

// New wraps an open pool. The store takes ownership and closes it on Close.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return wrap("migrate", err)
	}
	return nil
}

const projectColumns = `id, name, description, business_case, stage, current_stage_data, approval_status, cloud_provider`

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p     domain.Project
		stage string
		data  []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.BusinessCase, &stage, &data, &p.ApprovalStatus, &p.CloudProvider); err != nil {
		return nil, err
	}
	p.Stage = stages.Stage(stage)

	var err error
	if p.CurrentStageData, err = decodeJSON(data); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	p, err := scanProject(s.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get project", err)
	}
	return p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects ORDER BY id`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, wrap("list projects", err)
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, wrap("list projects", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list projects", err)
	}
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, in domain.NewProject) (*domain.Project, error) {
	q := `
INSERT INTO projects (name, description, business_case, stage, cloud_provider)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + projectColumns

	stage := storage.InitialStage(in.Stage)
	p, err := scanProject(s.db.QueryRow(ctx, q, in.Name, in.Description, in.BusinessCase, string(stage), in.CloudProvider))
	if err != nil {
		return nil, wrap("create project", err)
	}
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	q := `
UPDATE projects SET
    name               = COALESCE($2, name),
    description        = COALESCE($3, description),
    business_case      = COALESCE($4, business_case),
    cloud_provider     = COALESCE($5, cloud_provider),
    stage              = COALESCE($6, stage),
    current_stage_data = COALESCE($7::jsonb, current_stage_data),
    approval_status    = COALESCE($8, approval_status)
WHERE id = $1
RETURNING ` + projectColumns

	var stage *string
	if patch.Stage != nil {
		v := string(*patch.Stage)
		stage = &v
	}
	var data []byte
	if patch.CurrentStageData != nil {
		var err error
		if data, err = json.Marshal(patch.CurrentStageData); err != nil {
			return nil, fmt.Errorf("marshal current stage data: %w", err)
		}
	}

	p, err := scanProject(s.db.QueryRow(ctx, q, id,
		patch.Name, patch.Description, patch.BusinessCase, patch.CloudProvider,
		stage, data, patch.ApprovalStatus,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("update project", err)
	}
	return p, nil
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id); err != nil {
		return wrap("delete project", err)
	}
	return nil
}

const approvalColumns = `id, project_id, stage, approved, approved_by, approved_at, comments, requirements`

func scanApproval(row pgx.Row) (*domain.StageApproval, error) {
	var (
		a     domain.StageApproval
		stage string
		reqs  []byte
	)
	if err := row.Scan(&a.ID, &a.ProjectID, &stage, &a.Approved, &a.ApprovedBy, &a.ApprovedAt, &a.Comments, &reqs); err != nil {
		return nil, err
	}
	a.Stage = stages.Stage(stage)
	if a.ApprovedAt != nil {
		utc := a.ApprovedAt.UTC()
		a.ApprovedAt = &utc
	}

	var err error
	if a.Requirements, err = decodeJSON(reqs); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetStageApproval(ctx context.Context, projectID int64, stage stages.Stage) (*domain.StageApproval, error) {
	q := `SELECT ` + approvalColumns + ` FROM stage_approvals WHERE project_id = $1 AND stage = $2`

	a, err := scanApproval(s.db.QueryRow(ctx, q, projectID, string(stage)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("approval %d/%s: %w", projectID, stage, domain.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get stage approval", err)
	}
	return a, nil
}

// CreateStageApproval only draws from the id sequence when a row is actually
// inserted, so a rejected duplicate does not leave a gap in the ids.
func (s *Store) CreateStageApproval(ctx context.Context, in domain.NewStageApproval) (*domain.StageApproval, error) {
	q := `
INSERT INTO stage_approvals (project_id, stage, comments, requirements)
SELECT $1::bigint, $2::text, $3::text, $4::jsonb
WHERE NOT EXISTS (
    SELECT 1 FROM stage_approvals WHERE project_id = $1::bigint AND stage = $2::text
)
RETURNING ` + approvalColumns

	reqs, err := json.Marshal(in.Requirements.OrEmpty())
	if err != nil {
		return nil, fmt.Errorf("marshal requirements: %w", err)
	}

	a, err := scanApproval(s.db.QueryRow(ctx, q, in.ProjectID, string(in.Stage), in.Comments, reqs))
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return nil, fmt.Errorf("approval %d/%s: %w", in.ProjectID, in.Stage, domain.ErrAlreadyExists)
	}
	if err != nil {
		return nil, wrap("create stage approval", err)
	}
	return a, nil
}

func (s *Store) UpdateStageApproval(ctx context.Context, a domain.StageApproval) (*domain.StageApproval, error) {
	q := `
UPDATE stage_approvals SET
    approved     = $3,
    approved_by  = $4,
    approved_at  = $5,
    comments     = $6,
    requirements = $7::jsonb
WHERE project_id = $1 AND stage = $2
RETURNING ` + approvalColumns

	reqs, err := json.Marshal(a.Requirements.OrEmpty())
	if err != nil {
		return nil, fmt.Errorf("marshal requirements: %w", err)
	}
	var approvedAt *time.Time
	if a.ApprovedAt != nil {
		t := a.ApprovedAt.UTC()
		approvedAt = &t
	}

	out, err := scanApproval(s.db.QueryRow(ctx, q, a.ProjectID, string(a.Stage),
		a.Approved, a.ApprovedBy, approvedAt, a.Comments, reqs,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("approval %d/%s: %w", a.ProjectID, a.Stage, domain.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("update stage approval", err)
	}
	return out, nil
}

const reviewColumns = `id, project_id, stage, status, comments, reviewed_by`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		r      domain.Review
		stage  string
		status string
	)
	if err := row.Scan(&r.ID, &r.ProjectID, &stage, &status, &r.Comments, &r.ReviewedBy); err != nil {
		return nil, err
	}
	r.Stage = stages.Stage(stage)
	r.Status = domain.ReviewStatus(status)
	return &r, nil
}

func (s *Store) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("review %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get review", err)
	}
	return r, nil
}

func (s *Store) ListReviewsByProject(ctx context.Context, projectID int64) ([]domain.Review, error) {
	rows, err := s.db.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, wrap("list reviews", err)
	}
	defer rows.Close()

	out := make([]domain.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, wrap("list reviews", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list reviews", err)
	}
	return out, nil
}

func (s *Store) CreateReview(ctx context.Context, in domain.NewReview) (*domain.Review, error) {
	q := `
INSERT INTO reviews (project_id, stage, status, comments, reviewed_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + reviewColumns

	r, err := scanReview(s.db.QueryRow(ctx, q, in.ProjectID, string(in.Stage), string(in.Status), in.Comments, in.ReviewedBy))
	if err != nil {
		return nil, wrap("create review", err)
	}
	return r, nil
}

const templateColumns = `id, name, type, content`

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var (
		t       domain.Template
		kind    string
		content []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &kind, &content); err != nil {
		return nil, err
	}
	t.Type = domain.TemplateType(kind)

	var err error
	if t.Content, err = decodeJSON(content); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	t, err := scanTemplate(s.db.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get template", err)
	}
	return t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	rows, err := s.db.Query(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY id`)
	if err != nil {
		return nil, wrap("list templates", err)
	}
	defer rows.Close()

	out := make([]domain.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, wrap("list templates", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list templates", err)
	}
	return out, nil
}

func (s *Store) CreateTemplate(ctx context.Context, in domain.NewTemplate) (*domain.Template, error) {
	q := `
INSERT INTO templates (name, type, content)
VALUES ($1, $2, $3::jsonb)
RETURNING ` + templateColumns

	content, err := json.Marshal(in.Content.OrEmpty())
	if err != nil {
		return nil, fmt.Errorf("marshal template content: %w", err)
	}

	t, err := scanTemplate(s.db.QueryRow(ctx, q, in.Name, string(in.Type), content))
	if err != nil {
		return nil, wrap("create template", err)
	}
	return t, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func decodeJSON(raw []byte) (domain.JSONMap, error) {
	out := domain.JSONMap{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode jsonb: %w", err)
	}
	if out == nil {
		out = domain.JSONMap{}
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// wrap tags connection-level failures as domain.ErrStorageUnavailable.
func wrap(op string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
