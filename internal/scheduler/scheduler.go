// Package scheduler turns cron ticks into scoring jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/okian/matchpulse/internal/adapters/mq/queue"
	"github.com/okian/matchpulse/internal/domain/dedupe"
	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/pkg/logger"
	"github.com/okian/matchpulse/pkg/metrics"
)

const (
	defaultPreMatchSpec = "@hourly"
	defaultLiveSpec     = "@every 10m"
	defaultHorizon      = 7 * 24 * time.Hour
	defaultRetention    = 24 * time.Hour
	sweepTimeout        = 5 * time.Minute
)

// Lister finds the matches each sweep should score.
type Lister interface {
	ListUpcoming(ctx context.Context, from, to time.Time) ([]string, error)
	ListLive(ctx context.Context) ([]string, error)
}

// Enqueuer accepts jobs without blocking.
type Enqueuer interface {
	Enqueue(ctx context.Context, j model.Job) error
}

// Pruner drops stale feed entries.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) int
}

// Scheduler runs the pre-match and live sweeps on cron schedules.
type Scheduler struct {
	lister Lister
	queue  Enqueuer
	dedupe dedupe.Deduper
	pruner Pruner

	preMatchSpec string
	liveSpec     string
	horizon      time.Duration
	retention    time.Duration

	cron   *cron.Cron
	now    func() time.Time
	logger logger.Logger
}

// New creates a scheduler. Call Start to begin sweeping.
func New(lister Lister, q Enqueuer, d dedupe.Deduper, opts ...Option) *Scheduler {
	s := &Scheduler{
		lister:       lister,
		queue:        q,
		dedupe:       d,
		preMatchSpec: defaultPreMatchSpec,
		liveSpec:     defaultLiveSpec,
		horizon:      defaultHorizon,
		retention:    defaultRetention,
		now:          time.Now,
		logger:       logger.Get().Named("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithLocation(time.UTC))
	return s
}

// Start registers both sweeps, runs them once and starts the cron loop.
// Sweeps stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.preMatchSpec, func() { s.run(ctx, model.JobPreMatch) }); err != nil {
		return fmt.Errorf("prematch schedule %q: %w", s.preMatchSpec, err)
	}
	if _, err := s.cron.AddFunc(s.liveSpec, func() { s.run(ctx, model.JobLive) }); err != nil {
		return fmt.Errorf("live schedule %q: %w", s.liveSpec, err)
	}

	s.RunOnce(ctx)
	s.cron.Start()
	s.logger.Info(ctx, "scheduler started",
		logger.String("prematch", s.preMatchSpec),
		logger.String("live", s.liveSpec),
	)
	return nil
}

// Stop stops the cron loop and waits for a running sweep, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs both sweeps immediately.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.run(ctx, model.JobPreMatch)
	s.run(ctx, model.JobLive)
}

func (s *Scheduler) run(ctx context.Context, kind model.JobKind) {
	if ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	var (
		n   int
		err error
	)
	switch kind {
	case model.JobPreMatch:
		n, err = s.SweepPreMatch(ctx)
	case model.JobLive:
		n, err = s.SweepLive(ctx)
	}
	if err != nil {
		s.logger.Error(ctx, "sweep failed", logger.String("kind", string(kind)), logger.Error(err))
		return
	}
	s.logger.Debug(ctx, "sweep done", logger.String("kind", string(kind)), logger.Int("enqueued", n))
}

// SweepPreMatch enqueues every scheduled match kicking off within the horizon.
func (s *Scheduler) SweepPreMatch(ctx context.Context) (int, error) {
	metrics.RecordSweep(string(model.JobPreMatch))
	now := s.now()
	ids, err := s.lister.ListUpcoming(ctx, now, now.Add(s.horizon))
	if err != nil {
		return 0, fmt.Errorf("list upcoming: %w", err)
	}
	return s.enqueue(ctx, model.JobPreMatch, ids), nil
}

// SweepLive enqueues every match in play and prunes stale feed entries.
func (s *Scheduler) SweepLive(ctx context.Context) (int, error) {
	metrics.RecordSweep(string(model.JobLive))
	if s.pruner != nil {
		if n := s.pruner.Prune(ctx, s.now().Add(-s.retention)); n > 0 {
			s.logger.Info(ctx, "feed pruned", logger.Int("removed", n))
		}
	}
	ids, err := s.lister.ListLive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list live: %w", err)
	}
	return s.enqueue(ctx, model.JobLive, ids), nil
}

// enqueue queues one job per id and returns how many were accepted. A full
// queue ends the sweep early; the next tick picks the rest up.
func (s *Scheduler) enqueue(ctx context.Context, kind model.JobKind, ids []string) int {
	accepted := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		j := model.Job{
			ID:         uuid.NewString(),
			MatchID:    id,
			Kind:       kind,
			EnqueuedAt: s.now().UTC(),
		}
		key := j.Key()
		if s.dedupe.SeenAndRecord(ctx, key) {
			metrics.RecordJobDropped(string(kind), "duplicate")
			continue
		}

		err := s.queue.Enqueue(ctx, j)
		if err == nil {
			metrics.RecordJobEnqueued(string(kind))
			accepted++
			continue
		}

		s.dedupe.Unrecord(ctx, key)
		switch {
		case errors.Is(err, queue.ErrFull):
			metrics.RecordJobDropped(string(kind), "full")
			s.logger.Warn(ctx, "queue full, sweep cut short",
				logger.String("kind", string(kind)),
				logger.Int("accepted", accepted),
				logger.Int("listed", len(ids)),
			)
			return accepted
		case errors.Is(err, queue.ErrClosed):
			metrics.RecordJobDropped(string(kind), "closed")
			return accepted
		default:
			metrics.RecordJobDropped(string(kind), "error")
			s.logger.Error(ctx, "enqueue failed", logger.String("match_id", id), logger.Error(err))
		}
	}
	return accepted
}
