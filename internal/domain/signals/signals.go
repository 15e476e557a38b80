// Package signals turns raw match context into normalized excitement signals.
//
// Every calculator is a pure function. Missing denominators and missing
// optional context resolve to documented defaults instead of errors.
package signals

import (
	"math"

	"github.com/okian/matchpulse/internal/domain/model"
)

// Signal identifies one excitement input.
type Signal int

// Signals in their fixed evaluation order.
const (
	Competition Signal = iota
	Fixture
	Form
	Goals
	Table
	HeadToHead
	TitleHolder
	Rivalry

	Count = int(Rivalry) + 1
)

var names = [Count]string{
	Competition: "competition",
	Fixture:     "fixture",
	Form:        "form",
	Goals:       "goals",
	Table:       "table",
	HeadToHead:  "headToHead",
	TitleHolder: "titleHolder",
	Rivalry:     "rivalry",
}

// String returns the signal's breakdown name.
func (s Signal) String() string {
	if s < 0 || int(s) >= Count {
		return "unknown"
	}
	return names[s]
}

// All returns every signal in evaluation order.
func All() []Signal {
	out := make([]Signal, Count)
	for i := range out {
		out[i] = Signal(i)
	}
	return out
}

// Calculator computes one signal from a match context.
type Calculator func(mc *model.MatchContext) float64

// calculators is indexed by Signal.
var calculators = [Count]Calculator{
	Competition: func(mc *model.MatchContext) float64 {
		return CompetitionRank(mc.CompetitionRankScore)
	},
	Fixture: func(mc *model.MatchContext) float64 {
		return FixtureStage(mc.CurrentRound, mc.TotalRounds)
	},
	Form: func(mc *model.MatchContext) float64 {
		return (TeamForm(mc.HomeForm) + TeamForm(mc.AwayForm)) / 2
	},
	Goals: func(mc *model.MatchContext) float64 {
		return (TeamGoals(mc.HomeForm) + TeamGoals(mc.AwayForm)) / 2
	},
	Table: func(mc *model.MatchContext) float64 {
		var total int
		if mc.TotalRounds != nil {
			total = *mc.TotalRounds
		}
		return LeagueTable(mc.HomeRow, mc.AwayRow, mc.TotalTeams, total)
	},
	HeadToHead: func(mc *model.MatchContext) float64 {
		return HeadToHeadScore(mc.HeadToHead)
	},
	TitleHolder: func(mc *model.MatchContext) float64 {
		return TitleHolderScore(mc.HomeTeamID, mc.AwayTeamID, mc.TitleHolderID)
	},
	Rivalry: func(mc *model.MatchContext) float64 {
		return RivalryScore(mc.Rivalry)
	},
}

// Compute evaluates s for the given context.
func (s Signal) Compute(mc *model.MatchContext) float64 {
	if s < 0 || int(s) >= Count {
		return 0
	}
	return calculators[s](mc)
}

// Values evaluates every signal, indexed by Signal.
func Values(mc *model.MatchContext) [Count]float64 {
	var out [Count]float64
	for i, calc := range calculators {
		out[i] = calc(mc)
	}
	return out
}

// CompetitionRank passes the precomputed competition grade through, clamped to [0,1].
func CompetitionRank(score float64) float64 {
	return clamp01(score)
}

// FixtureStage is how far into the season the fixture sits, in [0,1].
func FixtureStage(currentRound, totalRounds *int) float64 {
	if currentRound == nil || totalRounds == nil || *totalRounds == 0 {
		return 0
	}
	return clamp01(float64(*currentRound) / float64(*totalRounds))
}

// formMaxPoints is the best possible return from a FormWindow run.
const formMaxPoints = 3 * model.FormWindow

// TeamForm scores the points taken over the look-back window.
func TeamForm(f model.Form) float64 {
	if f.Matches == 0 {
		return 0
	}
	return float64(f.Wins*3+f.Draws) / formMaxPoints
}

// TeamGoals is twice the goals scored per match. It is not bounded to [0,1].
func TeamGoals(f model.Form) float64 {
	if f.Matches == 0 {
		return 0
	}
	return float64(f.GoalsFor) / float64(f.Matches) * 2.0
}

// Neutral is returned when there is not enough data to judge a signal.
const Neutral = 0.5

// LeagueTable rates how close the two teams are in the table, how high up
// they are, and how much the point gap still matters this season.
func LeagueTable(home, away model.TableRow, totalTeams, totalRounds int) float64 {
	if totalTeams == 0 || totalRounds == 0 {
		return 0
	}
	if totalRounds <= 1 || totalTeams < 2 {
		return Neutral
	}
	if home.Position <= 0 || away.Position <= 0 {
		return 0
	}

	spread := float64(totalTeams - 1)

	positionDiff := math.Abs(float64(home.Position-away.Position)) - 1
	positionValue := 1 / (1 + positionDiff/spread)

	avgPosition := float64(home.Position+away.Position) / 2
	topBottomValue := 1 - (avgPosition-1)/spread

	pointDiff := math.Abs(float64(home.Points - away.Points))
	maxPointDiff := (totalRounds - max(home.Matches, away.Matches)) * 3
	if maxPointDiff <= 0 {
		return positionValue * topBottomValue
	}

	denom := math.Max(float64(maxPointDiff-1), 1)
	pointImpact := 1 / (1 + pointDiff/denom)
	return positionValue * topBottomValue * pointImpact
}

// HeadToHeadScore rates recent decisive meetings. No history is neutral, not low.
func HeadToHeadScore(h model.HeadToHead) float64 {
	if h.Games() == 0 {
		return Neutral
	}
	v := float64((h.HomeWins+h.AwayWins)*3+h.Draws) / formMaxPoints
	return math.Min(v, 1)
}

// TitleHolderScore is 1 when either side won the previous edition.
func TitleHolderScore(homeTeamID, awayTeamID, holderID string) float64 {
	if holderID == "" {
		return 0
	}
	if homeTeamID == holderID || awayTeamID == holderID {
		return 1
	}
	return 0
}

// RivalryScore uses the stored rivalry intensity for the pair.
func RivalryScore(v *float64) float64 {
	if v == nil {
		return 0
	}
	return clamp01(*v)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
