// Package service wires the scoring pipeline: scheduler, queue, worker pool,
// feed and persistence. It also implements the dependencies of the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/matchpulse/internal/adapters/mq/queue"
	"github.com/okian/matchpulse/internal/adapters/mq/worker"
	"github.com/okian/matchpulse/internal/adapters/repository"
	"github.com/okian/matchpulse/internal/domain/dedupe"
	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/internal/scheduler"
	"github.com/okian/matchpulse/pkg/logger"
	"github.com/okian/matchpulse/pkg/metrics"
)

// Store is the persistence the service runs on.
type Store interface {
	worker.Source
	worker.Sink
	scheduler.Lister
	Score(ctx context.Context, matchID string) (model.ScoreRecord, error)
}

// Service runs the scoring pipeline.
type Service struct {
	mu sync.RWMutex

	store     Store
	publisher worker.Publisher

	// Core components
	feed      repository.FeedStore
	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	pool      *worker.Pool
	scheduler *scheduler.Scheduler

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	maxFeedLimit  int
	retryAttempts int
	preMatchSpec  string
	liveSpec      string
	horizon       time.Duration
	retention     time.Duration
	now           func() time.Time

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service over store.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:         store,
		workerCount:   runtime.NumCPU() * 2,
		queueSize:     10_000,
		dedupeSize:    50_000,
		maxFeedLimit:  100,
		retryAttempts: 3,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components, starts the workers and begins sweeping.
// The first sweep runs before Start returns.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger.Info(ctx, "starting scoring service...")

	s.feed = repository.NewTreapStore(
		repository.WithMaxLimit(s.maxFeedLimit),
		repository.WithClock(s.now),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	procOpts := []worker.ProcessorOption{
		worker.WithRanker(s),
		worker.WithReleaser(s.deduper),
		worker.WithClock(s.now),
	}
	if s.publisher != nil {
		procOpts = append(procOpts, worker.WithPublisher(s.publisher))
	}
	source := worker.NewRetryingSource(s.store, s.retryAttempts, 0)
	processor := worker.NewProcessor(source, s.store, procOpts...)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.pool = worker.NewPool(s.workerCount, s.queue, processor)
	s.pool.Start(runCtx)

	s.scheduler = scheduler.New(s.store, s.queue, s.deduper,
		scheduler.WithPreMatchSchedule(s.preMatchSpec),
		scheduler.WithLiveSchedule(s.liveSpec),
		scheduler.WithHorizon(s.horizon),
		scheduler.WithPruner(s, s.retention),
		scheduler.WithClock(s.now),
	)
	if err := s.scheduler.Start(runCtx); err != nil {
		cancel()
		_ = s.pool.Shutdown(ctx)
		return fmt.Errorf("start scheduler: %w", err)
	}

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop stops sweeping, lets the workers drain the queue and cancels
// whatever is still running once ctx expires.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping scoring service...")

	var firstErr error
	if err := s.scheduler.Stop(ctx); err != nil {
		firstErr = fmt.Errorf("stop scheduler: %w", err)
	}
	if err := s.pool.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop workers: %w", err)
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
	return firstErr
}

// Upsert ranks a freshly scored match. The feed records its own metrics.
func (s *Service) Upsert(ctx context.Context, matchID string, score float64, live bool) error {
	return s.feed.Upsert(ctx, matchID, score, live)
}

// Prune drops feed entries not updated since before.
func (s *Service) Prune(ctx context.Context, before time.Time) int {
	return s.feed.Prune(ctx, before)
}

// TopN returns the n most exciting matches.
func (s *Service) TopN(ctx context.Context, n int) ([]model.FeedEntry, error) {
	return s.feed.TopN(ctx, n)
}

// Rank returns the feed entry of a match.
func (s *Service) Rank(ctx context.Context, matchID string) (model.FeedEntry, error) {
	return s.feed.Rank(ctx, matchID)
}

// Score returns the persisted record of a match.
func (s *Service) Score(ctx context.Context, matchID string) (model.ScoreRecord, error) {
	return s.store.Score(ctx, matchID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.queue.Len()
		feedSize := s.feed.Count(ctx)

		stats["queueLength"] = queueLen
		stats["pendingJobs"] = s.deduper.Size()
		stats["feedSize"] = feedSize
		stats["activeWorkers"] = s.pool.Active()
		stats["processedJobs"] = s.pool.Processed()
		stats["failedJobs"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateFeedSize(feedSize)
		metrics.UpdateWorkerCount(s.workerCount)
		metrics.UpdateGoroutineCount(runtime.NumGoroutine())
	}
	return stats
}
