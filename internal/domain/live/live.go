// Package live scores a match while it is being played.
package live

import (
	"math"
	"time"

	"github.com/okian/matchpulse/internal/domain/model"
)

// Statistic keys read from the provider feed. All are taken from the
// whole-match period.
const (
	PeriodAll = "ALL"

	GroupOverview = "Match overview"
	GroupShots    = "Shots"
	GroupAttack   = "Attack"

	StatTotalShots    = "Total shots"
	StatShotsOnTarget = "Shots on target"
	StatExpectedGoals = "Expected goals"
	StatFouls         = "Fouls"
	StatYellowCards   = "Yellow cards"
	StatRedCards      = "Red cards"
	StatPossession    = "Ball possession"
	StatBigChances    = "Big chances"
)

// Sub-score names as they appear in the breakdown.
const (
	ScoreLine     = "scoreLine"
	Shots         = "shots"
	ExpectedGoals = "expectedGoals"
	Fouls         = "fouls"
	Cards         = "cards"
	Possession    = "possession"
	BigChances    = "bigChances"
)

// Weights are the fixed live sub-score weights, in breakdown order. They sum to 1.
var Weights = []Weight{
	{ScoreLine, 0.25},
	{Shots, 0.15},
	{ExpectedGoals, 0.15},
	{Fouls, 0.10},
	{Cards, 0.10},
	{Possession, 0.10},
	{BigChances, 0.15},
}

// Weight pairs a sub-score with its share of the live score.
type Weight struct {
	Name  string
	Value float64
}

// maxGoalDiff is the goal difference at which the score line stops being exciting.
const maxGoalDiff = 5

// Result is the live score of a match at one instant.
type Result struct {
	MatchID   string
	Score     float64
	GameTime  float64
	Breakdown model.Breakdown
}

// GameTime returns the minutes played at now.
func GameTime(m model.Match, now time.Time) float64 {
	switch m.Period {
	case model.PeriodNone:
		return float64(90 + m.InjuryTime1 + m.InjuryTime2)
	case model.PeriodFirst:
		return minutesSince(m.KickoffAt, now)
	case model.PeriodSecond:
		return 45 + float64(m.InjuryTime1) + minutesSince(m.SecondPeriodStart, now)
	default:
		return 0
	}
}

func minutesSince(t, now time.Time) float64 {
	if t.IsZero() || now.Before(t) {
		return 0
	}
	return math.Floor(now.Sub(t).Minutes())
}

type statRef struct {
	group, name string
	dst         func(s *model.LiveSnapshot) *model.Pair
}

var required = []statRef{
	{GroupOverview, StatTotalShots, func(s *model.LiveSnapshot) *model.Pair { return &s.TotalShots }},
	{GroupShots, StatShotsOnTarget, func(s *model.LiveSnapshot) *model.Pair { return &s.ShotsOnTarget }},
	{GroupOverview, StatExpectedGoals, func(s *model.LiveSnapshot) *model.Pair { return &s.ExpectedGoals }},
	{GroupOverview, StatFouls, func(s *model.LiveSnapshot) *model.Pair { return &s.Fouls }},
	{GroupOverview, StatYellowCards, func(s *model.LiveSnapshot) *model.Pair { return &s.YellowCards }},
	{GroupOverview, StatPossession, func(s *model.LiveSnapshot) *model.Pair { return &s.Possession }},
	{GroupAttack, StatBigChances, func(s *model.LiveSnapshot) *model.Pair { return &s.BigChances }},
}

// Snapshot aggregates the statistics needed for live scoring. It returns
// false when the feed is missing or lacks a required statistic. Red cards are
// optional: most matches never report them.
func Snapshot(in model.LiveInput) (model.LiveSnapshot, bool) {
	if in.Stats == nil {
		return model.LiveSnapshot{}, false
	}
	if in.Match.Status != model.StatusLive && in.Match.Status != model.StatusFinished {
		return model.LiveSnapshot{}, false
	}

	snap := model.LiveSnapshot{
		GameTime:  GameTime(in.Match, in.Now),
		HomeScore: in.Match.HomeScore,
		AwayScore: in.Match.AwayScore,
	}
	for _, ref := range required {
		p, ok := in.Stats.Lookup(PeriodAll, ref.group, ref.name)
		if !ok {
			return model.LiveSnapshot{}, false
		}
		*ref.dst(&snap) = p
	}
	if p, ok := in.Stats.Lookup(PeriodAll, GroupOverview, StatRedCards); ok {
		snap.RedCards = p
	}
	return snap, true
}

// Factors computes every unweighted sub-score from a snapshot, in [0,1].
func Factors(s model.LiveSnapshot) map[string]float64 {
	shots := s.TotalShots.Total()

	goalDiff := math.Min(math.Abs(float64(s.HomeScore-s.AwayScore)), maxGoalDiff)

	var leadingRed float64
	switch {
	case s.HomeScore > s.AwayScore:
		leadingRed = s.RedCards.Home
	case s.AwayScore > s.HomeScore:
		leadingRed = s.RedCards.Away
	}

	return map[string]float64{
		ScoreLine:     clamp01(1 - goalDiff/maxGoalDiff),
		Shots:         clamp01(ratio(shots, s.GameTime)/10 + ratio(s.ShotsOnTarget.Total(), shots)),
		ExpectedGoals: clamp01(s.ExpectedGoals.Total() / 3),
		Fouls:         foulFactor(s.Fouls.Total(), s.GameTime),
		Cards:         clamp01(1 - (s.YellowCards.Total()/10 + 2*leadingRed)),
		Possession:    clamp01(1 - math.Abs(s.Possession.Home-50)/50),
		BigChances:    clamp01(ratio(s.BigChances.Total(), shots) / 10),
	}
}

func foulFactor(fouls, gameTime float64) float64 {
	if gameTime <= 0 {
		return 0
	}
	return clamp01(1 - fouls/gameTime)
}

// Compute scores a live input. ok is false when there is nothing to update.
func Compute(in model.LiveInput) (Result, bool) {
	snap, ok := Snapshot(in)
	if !ok {
		return Result{}, false
	}
	return FromSnapshot(in.Match.ID, snap), true
}

// FromSnapshot scores an already aggregated snapshot.
func FromSnapshot(matchID string, snap model.LiveSnapshot) Result {
	factors := Factors(snap)
	res := Result{
		MatchID:   matchID,
		GameTime:  snap.GameTime,
		Breakdown: make(model.Breakdown, 0, len(Weights)),
	}
	for _, w := range Weights {
		weighted := factors[w.Name] * w.Value
		res.Score += weighted
		res.Breakdown = append(res.Breakdown, model.Contribution{
			Name:     w.Name,
			Raw:      weighted / w.Value,
			Weight:   w.Value,
			Weighted: weighted,
		})
	}
	return res
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
