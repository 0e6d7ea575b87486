// Package ledger owns stage approval records and their transition to approved.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/GoSim-25-26J-441/migration-gate/internal/storage"
)

// ApprovalLedger keeps at most one approval record per (project, stage).
type ApprovalLedger struct {
	store storage.Gateway
	now   func() time.Time
}

type Option func(*ApprovalLedger)

// WithClock overrides the time source used for approvedAt.
func WithClock(now func() time.Time) Option {
	return func(l *ApprovalLedger) { l.now = now }
}

func New(store storage.Gateway, opts ...Option) *ApprovalLedger {
	l := &ApprovalLedger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Get returns the record for the pair or an error wrapping domain.ErrNotFound.
func (l *ApprovalLedger) Get(ctx context.Context, projectID int64, stage stages.Stage) (*domain.StageApproval, error) {
	return l.store.GetStageApproval(ctx, projectID, stage)
}

// Create opens an unapproved record. It fails with domain.ErrAlreadyExists
// when the pair already has one.
func (l *ApprovalLedger) Create(ctx context.Context, projectID int64, stage stages.Stage, requirements domain.JSONMap, comments *string) (*domain.StageApproval, error) {
	return l.store.CreateStageApproval(ctx, domain.NewStageApproval{
		ProjectID:    projectID,
		Stage:        stage,
		Requirements: requirements,
		Comments:     comments,
	})
}

// Approve marks the pair approved, creating the record first when none
// exists. Approving again is allowed: the approver and timestamp are
// refreshed and comments are replaced only when a non-empty value is given.
func (l *ApprovalLedger) Approve(ctx context.Context, projectID int64, stage stages.Stage, approvedBy, comments string) (*domain.StageApproval, error) {
	current, err := l.Get(ctx, projectID, stage)
	if errors.Is(err, domain.ErrNotFound) {
		current, err = l.Create(ctx, projectID, stage, domain.JSONMap{}, nonEmpty(comments))
		if errors.Is(err, domain.ErrAlreadyExists) {
			// lost a race with another creator; approve theirs
			current, err = l.Get(ctx, projectID, stage)
		}
	}
	if err != nil {
		return nil, err
	}

	// microsecond precision and UTC survive every backend unchanged
	at := l.now().UTC().Truncate(time.Microsecond)

	next := *current
	next.Approved = true
	next.ApprovedBy = &approvedBy
	next.ApprovedAt = &at
	if c := nonEmpty(comments); c != nil {
		next.Comments = c
	}

	return l.store.UpdateStageApproval(ctx, next)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
