// Package digest periodically logs how many projects sit at each stage.
package digest

import (
	"context"
	"time"

	"github.com/GoSim-25-26J-441/migration-gate/internal/governance/domain"
	"github.com/GoSim-25-26J-441/migration-gate/internal/platform/logger"
	"github.com/GoSim-25-26J-441/migration-gate/internal/stages"
	"github.com/robfig/cron/v3"
)

type ProjectLister interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
}

// Summary counts projects per stage. Projects whose stage is not part of
// the sequence are counted under Unknown.
type Summary struct {
	Total   int
	ByStage map[stages.Stage]int
	Unknown int
}

// Completed counts projects that reached the terminal stage.
func (s Summary) Completed() int {
	return s.ByStage[stages.Last()]
}

func Summarize(projects []domain.Project) Summary {
	s := Summary{ByStage: make(map[stages.Stage]int, len(stages.All()))}
	for _, st := range stages.All() {
		s.ByStage[st] = 0
	}
	for _, p := range projects {
		s.Total++
		if !p.Stage.Valid() {
			s.Unknown++
			continue
		}
		s.ByStage[p.Stage]++
	}
	return s
}

type Scheduler struct {
	store   ProjectLister
	log     *logger.Logger
	spec    string
	timeout time.Duration
	cron    *cron.Cron
}

// NewScheduler runs the digest on spec, a six-field cron expression
// (seconds first), e.g. "0 0 0 * * *" for every midnight.
func NewScheduler(store ProjectLister, log *logger.Logger, spec string) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		store:   store,
		log:     log.With("component", "digest"),
		spec:    spec,
		timeout: 30 * time.Second,
		cron:    cron.New(cron.WithSeconds()),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("stage digest scheduled", "cron", s.spec)
	return nil
}

// Stop halts the schedule and waits for a running digest to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce computes and logs a digest immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		s.log.Error("stage digest failed", "error", err)
		return Summary{}, err
	}

	sum := Summarize(projects)
	kv := []interface{}{"total", sum.Total, "completed", sum.Completed(), "unknown", sum.Unknown}
	for _, st := range stages.All() {
		kv = append(kv, string(st), sum.ByStage[st])
	}
	s.log.Info("stage digest", kv...)
	return sum, nil
}
