package model

import "time"

// Contribution is one named input to an aggregate score.
type Contribution struct {
	Name     string  `json:"name"`
	Raw      float64 `json:"raw"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Breakdown is the ordered list of contributions behind a score.
type Breakdown []Contribution

// Aggregate sums the weighted contributions.
func (b Breakdown) Aggregate() float64 {
	var sum float64
	for _, c := range b {
		sum += c.Weighted
	}
	return sum
}

// Get returns the contribution with the given name.
func (b Breakdown) Get(name string) (Contribution, bool) {
	for _, c := range b {
		if c.Name == name {
			return c, true
		}
	}
	return Contribution{}, false
}

// ScoreRecord is what the service persists for a match.
type ScoreRecord struct {
	MatchID string `json:"match_id"`

	PreMatch            *float64  `json:"prematch,omitempty"`
	PreMatchStage       string    `json:"prematch_stage,omitempty"`
	PreMatchBreakdown   Breakdown `json:"prematch_breakdown,omitempty"`
	PreMatchExplanation string    `json:"prematch_explanation,omitempty"`

	Live            *float64  `json:"live,omitempty"`
	LiveBreakdown   Breakdown `json:"live_breakdown,omitempty"`
	LiveExplanation string    `json:"live_explanation,omitempty"`
	GameTime        float64   `json:"game_time,omitempty"`

	// LiveFinal marks a live score computed after the final whistle.
	LiveFinal bool `json:"live_final,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Explanation returns the live explanation once a live score exists,
// otherwise the pre-match one.
func (r ScoreRecord) Explanation() string {
	if r.Live != nil {
		return r.LiveExplanation
	}
	return r.PreMatchExplanation
}

// FeedScore returns the score the feed ranks by: live when available,
// otherwise pre-match.
func (r ScoreRecord) FeedScore() float64 {
	if r.Live != nil {
		return *r.Live
	}
	if r.PreMatch != nil {
		return *r.PreMatch
	}
	return 0
}

// FeedEntry is a ranked row of the excitement feed.
type FeedEntry struct {
	Rank    int     `json:"rank"`
	MatchID string  `json:"match_id"`
	Score   float64 `json:"score"`
	Live    bool    `json:"live"`
}
