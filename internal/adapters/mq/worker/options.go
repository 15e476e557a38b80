// Package worker drains the job queue and runs the scoring engines.
package worker

import (
	"time"

	"github.com/okian/matchpulse/internal/domain/scoring"
	"github.com/okian/matchpulse/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithScorer replaces the pre-match engine.
func WithScorer(s scoring.Scorer) ProcessorOption {
	return func(p *Processor) {
		if s != nil {
			p.scorer = s
		}
	}
}

// WithRanker updates the ranked feed after each score.
func WithRanker(r Ranker) ProcessorOption {
	return func(p *Processor) { p.ranker = r }
}

// WithPublisher broadcasts each score.
func WithPublisher(pub Publisher) ProcessorOption {
	return func(p *Processor) { p.publisher = pub }
}

// WithReleaser releases job keys once processed.
func WithReleaser(r Releaser) ProcessorOption {
	return func(p *Processor) { p.releaser = r }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithProcessorLogger sets the processor logger.
func WithProcessorLogger(l logger.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}
