// Package scoring computes the pre-match excitement score of a fixture.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/internal/domain/signals"
)

// Result contains the computed pre-match score for a match.
type Result struct {
	MatchID   string
	Score     float64
	Stage     Stage
	Breakdown model.Breakdown
}

// Scorer computes a pre-match score from a resolved match context.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, mc model.MatchContext) (Result, error)
}

// Compute scores a match context with the weight profile of its stage.
// It is pure: identical input yields identical output.
func Compute(mc model.MatchContext) Result {
	stage := DetectStage(mc.CurrentRound, mc.TotalRounds, mc.StandingsRows)
	weights := Profile(stage)
	values := signals.Values(&mc)

	breakdown := make(model.Breakdown, 0, signals.Count)
	var score float64
	for _, s := range signals.All() {
		w := weights.Of(s)
		weighted := w * values[s]
		score += weighted
		breakdown = append(breakdown, model.Contribution{
			Name:     s.String(),
			Raw:      values[s],
			Weight:   w,
			Weighted: weighted,
		})
	}

	return Result{
		MatchID:   mc.MatchID,
		Score:     score,
		Stage:     stage,
		Breakdown: breakdown,
	}
}

// Engine implements Scorer over Compute.
type Engine struct{}

// NewEngine creates a pre-match engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score computes the pre-match score for mc.
func (e *Engine) Score(ctx context.Context, mc model.MatchContext) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	return Compute(mc), nil
}
