package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/matchpulse/internal/domain/explain"
	"github.com/okian/matchpulse/internal/domain/live"
	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/internal/domain/scoring"
	"github.com/okian/matchpulse/pkg/logger"
	"github.com/okian/matchpulse/pkg/metrics"
)

// Source resolves the inputs of both engines.
type Source interface {
	MatchContext(ctx context.Context, matchID string) (model.MatchContext, error)
	LiveInput(ctx context.Context, matchID string, now time.Time) (model.LiveInput, error)
}

// Sink persists computed scores.
type Sink interface {
	SavePreMatch(ctx context.Context, rec model.ScoreRecord) error
	SaveLive(ctx context.Context, rec model.ScoreRecord) error
}

// Ranker keeps the ranked feed in step with persisted scores.
type Ranker interface {
	Upsert(ctx context.Context, matchID string, score float64, live bool) error
}

// Publisher broadcasts a persisted score.
type Publisher interface {
	Publish(ctx context.Context, rec model.ScoreRecord) error
}

// Releaser frees a job key once the job is done.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Processor runs one job end to end: resolve, compute, persist, rank, publish.
type Processor struct {
	source    Source
	sink      Sink
	scorer    scoring.Scorer
	ranker    Ranker
	publisher Publisher
	releaser  Releaser
	now       func() time.Time
	logger    logger.Logger
}

// NewProcessor creates a processor. Ranker, publisher and releaser are optional.
func NewProcessor(source Source, sink Sink, opts ...ProcessorOption) *Processor {
	p := &Processor{
		source: source,
		sink:   sink,
		scorer: scoring.NewEngine(),
		now:    time.Now,
		logger: logger.Get().Named("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handle processes j. A live job without a usable snapshot is not an error.
func (p *Processor) Handle(ctx context.Context, j model.Job) error {
	if p.releaser != nil {
		defer p.releaser.Unrecord(ctx, j.Key())
	}

	start := time.Now()
	defer func() {
		metrics.RecordJobLatency(string(j.Kind), float64(time.Since(start).Milliseconds()))
	}()

	var (
		rec model.ScoreRecord
		ok  bool
		err error
	)
	switch j.Kind {
	case model.JobPreMatch:
		rec, err = p.preMatch(ctx, j)
		ok = err == nil
	case model.JobLive:
		rec, ok, err = p.live(ctx, j)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJobKind, j.Kind)
	}
	if err != nil || !ok {
		return err
	}

	score := rec.FeedScore()
	metrics.RecordScore(string(j.Kind), score)

	if p.ranker != nil {
		if err := p.ranker.Upsert(ctx, j.MatchID, score, j.Kind == model.JobLive); err != nil {
			metrics.RecordJobError(string(j.Kind), "rank")
			return fmt.Errorf("rank %s: %w", j.MatchID, err)
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, rec); err != nil {
			metrics.RecordPublish("error")
			metrics.RecordJobError(string(j.Kind), "publish")
			// the score is already persisted; the next sweep republishes
			p.logger.Warn(ctx, "publish failed", logger.String("match_id", j.MatchID), logger.Error(err))
		} else {
			metrics.RecordPublish("ok")
		}
	}

	metrics.RecordJobProcessed(string(j.Kind))
	p.logger.Debug(ctx, "job processed",
		logger.String("job_id", j.ID),
		logger.String("match_id", j.MatchID),
		logger.String("kind", string(j.Kind)),
		logger.Float64("score", score),
	)
	return nil
}

func (p *Processor) preMatch(ctx context.Context, j model.Job) (model.ScoreRecord, error) {
	mc, err := p.source.MatchContext(ctx, j.MatchID)
	if err != nil {
		metrics.RecordJobError(string(j.Kind), "context")
		return model.ScoreRecord{}, fmt.Errorf("resolve context %s: %w", j.MatchID, err)
	}

	res, err := p.scorer.Score(ctx, mc)
	if err != nil {
		metrics.RecordJobError(string(j.Kind), "compute")
		return model.ScoreRecord{}, fmt.Errorf("score %s: %w", j.MatchID, err)
	}

	rec := model.ScoreRecord{
		MatchID:             j.MatchID,
		PreMatch:            model.Float64(res.Score),
		PreMatchStage:       res.Stage.String(),
		PreMatchBreakdown:   res.Breakdown,
		PreMatchExplanation: explain.Explain(res.Breakdown),
		UpdatedAt:           p.now().UTC(),
	}
	if err := p.sink.SavePreMatch(ctx, rec); err != nil {
		metrics.RecordJobError(string(j.Kind), "persist")
		return model.ScoreRecord{}, fmt.Errorf("save prematch %s: %w", j.MatchID, err)
	}
	return rec, nil
}

func (p *Processor) live(ctx context.Context, j model.Job) (model.ScoreRecord, bool, error) {
	now := p.now()
	in, err := p.source.LiveInput(ctx, j.MatchID, now)
	if err != nil {
		metrics.RecordJobError(string(j.Kind), "context")
		return model.ScoreRecord{}, false, fmt.Errorf("resolve live input %s: %w", j.MatchID, err)
	}

	res, ok := live.Compute(in)
	if !ok {
		metrics.RecordLiveSkipped()
		p.logger.Debug(ctx, "no live update", logger.String("match_id", j.MatchID))
		return model.ScoreRecord{}, false, nil
	}

	rec := model.ScoreRecord{
		MatchID:         j.MatchID,
		Live:            model.Float64(res.Score),
		LiveBreakdown:   res.Breakdown,
		LiveExplanation: explain.Explain(res.Breakdown),
		GameTime:        res.GameTime,
		LiveFinal:       in.Match.Status == model.StatusFinished,
		UpdatedAt:       now.UTC(),
	}
	if err := p.sink.SaveLive(ctx, rec); err != nil {
		metrics.RecordJobError(string(j.Kind), "persist")
		return model.ScoreRecord{}, false, fmt.Errorf("save live %s: %w", j.MatchID, err)
	}
	return rec, true, nil
}
