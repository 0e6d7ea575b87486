// Package redisstore is a storage.Gateway kept in Redis: JSON documents per
// record, INCR counters for ids and sorted sets as id-ordered indexes.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
	"github.com/redis/go-redis/v9"
)

var _ storage.Gateway = (*Store)(nil)

const (
	seqPrefix          = "gate:seq:"             // gate:seq:{kind} -> last id handed out
	projectKeyPrefix   = "gate:project:"         // gate:project:{id} -> project JSON
	projectIndexKey    = "gate:projects"         // zset of project ids, score = id
	approvalKeyPrefix  = "gate:approval:"        // gate:approval:{project_id}:{stage} -> approval JSON
	reviewKeyPrefix    = "gate:review:"          // gate:review:{id} -> review JSON
	projectReviewsKey  = "gate:project-reviews:" // gate:project-reviews:{project_id} zset of review ids
	templateKeyPrefix  = "gate:template:"        // gate:template:{id} -> template JSON
	templateIndexKey   = "gate:templates"        // zset of template ids
	projectEventPrefix = "gate:events:project:"  // pub/sub channel per project
)

type Store struct {
	client *redis.Client
}

// New wraps an open client. The store closes it on Close.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	if err := s.getJSON(ctx, projectKey(id), &p); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
		}
		return nil, wrap("get project", err)
	}
	return &p, nil
}

func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, 16)
	err := s.listJSON(ctx, projectIndexKey, projectKey, func(raw []byte) error {
		var p domain.Project
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, wrap("list projects", err)
	}
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, in domain.NewProject) (*domain.Project, error) {
	id, err := s.nextID(ctx, "projects")
	if err != nil {
		return nil, wrap("create project", err)
	}

	p := domain.Project{
		ID:               id,
		Name:             in.Name,
		Description:      in.Description,
		BusinessCase:     in.BusinessCase,
		CloudProvider:    in.CloudProvider,
		Stage:            storage.InitialStage(in.Stage),
		CurrentStageData: domain.JSONMap{},
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, projectKey(id), data, 0)
		pipe.ZAdd(ctx, projectIndexKey, redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		return nil, wrap("create project", err)
	}
	return &p, nil
}

// maxTxRetries bounds optimistic retries when a watched key changes
// between read and commit.
const maxTxRetries = 50

func (s *Store) UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	key := projectKey(id)
	var updated domain.Project

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		var current domain.Project
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("unmarshal project: %w", err)
		}

		updated = patch.Apply(current)
		data, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("marshal project: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.Publish(ctx, projectChannel(id), data)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return &updated, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, redis.Nil):
			return nil, fmt.Errorf("project %d: %w", id, domain.ErrNotFound)
		default:
			return nil, wrap("update project", err)
		}
	}
	return nil, fmt.Errorf("update project %d: %w: gave up after %d conflicting writes",
		id, domain.ErrStorageUnavailable, maxTxRetries)
}

func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, projectKey(id))
		pipe.ZRem(ctx, projectIndexKey, id)
		return nil
	})
	if err != nil {
		return wrap("delete project", err)
	}
	return nil
}

func (s *Store) GetStageApproval(ctx context.Context, projectID int64, stage stages.Stage) (*domain.StageApproval, error) {
	var a domain.StageApproval
	if err := s.getJSON(ctx, approvalKey(projectID, stage), &a); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("approval %d/%s: %w", projectID, stage, domain.ErrNotFound)
		}
		return nil, wrap("get stage approval", err)
	}
	return &a, nil
}

func (s *Store) CreateStageApproval(ctx context.Context, in domain.NewStageApproval) (*domain.StageApproval, error) {
	key := approvalKey(in.ProjectID, in.Stage)
	var created domain.StageApproval

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrAlreadyExists
		}

		id, err := tx.Incr(ctx, seqPrefix+"approvals").Result()
		if err != nil {
			return err
		}
		created = domain.StageApproval{
			ID:           id,
			ProjectID:    in.ProjectID,
			Stage:        in.Stage,
			Comments:     in.Comments,
			Requirements: in.Requirements.OrEmpty(),
		}
		data, err := json.Marshal(created)
		if err != nil {
			return fmt.Errorf("marshal approval: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}, key)

	switch {
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, redis.TxFailedErr):
		return nil, fmt.Errorf("approval %d/%s: %w", in.ProjectID, in.Stage, domain.ErrAlreadyExists)
	case err != nil:
		return nil, wrap("create stage approval", err)
	}
	return &created, nil
}

// UpdateStageApproval replaces the record for the pair with SET XX. The id
// of a pair never changes, so reading it first needs no transaction.
func (s *Store) UpdateStageApproval(ctx context.Context, a domain.StageApproval) (*domain.StageApproval, error) {
	key := approvalKey(a.ProjectID, a.Stage)

	existing, err := s.GetStageApproval(ctx, a.ProjectID, a.Stage)
	if err != nil {
		return nil, err
	}

	updated := a
	updated.ID = existing.ID
	updated.Requirements = a.Requirements.OrEmpty()
	data, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("marshal approval: %w", err)
	}

	ok, err := s.client.SetXX(ctx, key, data, 0).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, wrap("update stage approval", err)
	}
	if !ok {
		return nil, fmt.Errorf("approval %d/%s: %w", a.ProjectID, a.Stage, domain.ErrNotFound)
	}

	// re-read so the caller sees exactly what a later Get returns
	return s.GetStageApproval(ctx, a.ProjectID, a.Stage)
}

func (s *Store) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	var r domain.Review
	if err := s.getJSON(ctx, reviewKey(id), &r); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("review %d: %w", id, domain.ErrNotFound)
		}
		return nil, wrap("get review", err)
	}
	return &r, nil
}

func (s *Store) ListReviewsByProject(ctx context.Context, projectID int64) ([]domain.Review, error) {
	out := make([]domain.Review, 0)
	err := s.listJSON(ctx, projectReviewsKey+strconv.FormatInt(projectID, 10), reviewKey, func(raw []byte) error {
		var r domain.Review
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, wrap("list reviews", err)
	}
	return out, nil
}

func (s *Store) CreateReview(ctx context.Context, in domain.NewReview) (*domain.Review, error) {
	id, err := s.nextID(ctx, "reviews")
	if err != nil {
		return nil, wrap("create review", err)
	}

	r := domain.Review{
		ID:         id,
		ProjectID:  in.ProjectID,
		Stage:      in.Stage,
		Status:     in.Status,
		Comments:   in.Comments,
		ReviewedBy: in.ReviewedBy,
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal review: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, reviewKey(id), data, 0)
		pipe.ZAdd(ctx, projectReviewsKey+strconv.FormatInt(in.ProjectID, 10), redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		return nil, wrap("create review", err)
	}
	return &r, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	var t domain.Template
	if err := s.getJSON(ctx, templateKey(id), &t); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
		}
		return nil, wrap("get template", err)
	}
	return &t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	out := make([]domain.Template, 0)
	err := s.listJSON(ctx, templateIndexKey, templateKey, func(raw []byte) error {
		var t domain.Template
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, wrap("list templates", err)
	}
	return out, nil
}

func (s *Store) CreateTemplate(ctx context.Context, in domain.NewTemplate) (*domain.Template, error) {
	id, err := s.nextID(ctx, "templates")
	if err != nil {
		return nil, wrap("create template", err)
	}

	t := domain.Template{
		ID:      id,
		Name:    in.Name,
		Type:    in.Type,
		Content: in.Content.OrEmpty(),
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, templateKey(id), data, 0)
		pipe.ZAdd(ctx, templateIndexKey, redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		return nil, wrap("create template", err)
	}
	return &t, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// SubscribeProject returns a subscription to update events of one project.
// Each message payload is the project JSON after the update.
func (s *Store) SubscribeProject(ctx context.Context, id int64) *redis.PubSub {
	return s.client.Subscribe(ctx, projectChannel(id))
}

func (s *Store) nextID(ctx context.Context, kind string) (int64, error) {
	return s.client.Incr(ctx, seqPrefix+kind).Result()
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// listJSON walks an id index in ascending order and feeds every record that
// still exists to fn.
func (s *Store) listJSON(ctx context.Context, index string, keyOf func(int64) string, fn func([]byte) error) error {
	members, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return fmt.Errorf("bad id %q in %s: %w", m, index, err)
		}
		keys = append(keys, keyOf(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return err
	}
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if err := fn([]byte(raw)); err != nil {
			return err
		}
	}
	return nil
}

func projectKey(id int64) string  { return projectKeyPrefix + strconv.FormatInt(id, 10) }
func reviewKey(id int64) string   { return reviewKeyPrefix + strconv.FormatInt(id, 10) }
func templateKey(id int64) string { return templateKeyPrefix + strconv.FormatInt(id, 10) }

func approvalKey(projectID int64, stage stages.Stage) string {
	return fmt.Sprintf("%s%d:%s", approvalKeyPrefix, projectID, stage)
}

func projectChannel(id int64) string {
	return projectEventPrefix + strconv.FormatInt(id, 10)
}

// wrap tags connection-level failures as domain.ErrStorageUnavailable.
func wrap(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
