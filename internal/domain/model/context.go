// Package model contains domain models passed between layers.
package model

// FormWindow is the number of recent matches a team's form covers.
const FormWindow = 5

// Form captures a team's results over its last FormWindow matches.
type Form struct {
	Wins     int
	Draws    int
	Matches  int
	GoalsFor int
}

// TableRow is one team's row in the competition standings.
// A zero Position means the team has no row.
type TableRow struct {
	Position int
	Points   int
	Matches  int
}

// HeadToHead tallies recent meetings between the two teams.
type HeadToHead struct {
	HomeWins int
	AwayWins int
	Draws    int
}

// Games returns the number of meetings in the tally.
func (h HeadToHead) Games() int {
	return h.HomeWins + h.AwayWins + h.Draws
}

// MatchContext is everything the pre-match engine needs about a fixture.
// Callers resolve it fully before scoring; optional values are pointers.
type MatchContext struct {
	MatchID string

	HomeTeamID string
	AwayTeamID string

	// CompetitionRankScore grades the competition itself, in [0,1].
	CompetitionRankScore float64

	CurrentRound *int
	TotalRounds  *int

	HomeForm Form
	AwayForm Form

	HomeRow       TableRow
	AwayRow       TableRow
	TotalTeams    int
	StandingsRows int

	HeadToHead HeadToHead

	// Rivalry is the stored intensity for the team pair, nil when unknown.
	Rivalry *float64

	// TitleHolderID is the previous edition's winner, empty when unknown.
	TitleHolderID string
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }
