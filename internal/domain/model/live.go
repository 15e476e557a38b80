package model

import "time"

// StatKey addresses one provider statistic.
type StatKey struct {
	Period string
	Group  string
	Name   string
}

// Pair holds the home and away value of a statistic.
type Pair struct {
	Home float64
	Away float64
}

// Total returns Home + Away.
func (p Pair) Total() float64 { return p.Home + p.Away }

// Statistics maps provider statistic keys to their values. A key that is
// absent is different from a key present with zero values.
type Statistics map[StatKey]Pair

// Lookup returns the value stored for (period, group, name) and whether it exists.
func (s Statistics) Lookup(period, group, name string) (Pair, bool) {
	p, ok := s[StatKey{Period: period, Group: group, Name: name}]
	return p, ok
}

// Set stores a value for (period, group, name).
func (s Statistics) Set(period, group, name string, home, away float64) {
	s[StatKey{Period: period, Group: group, Name: name}] = Pair{Home: home, Away: away}
}

// LiveInput is the in-play state handed to the live engine.
type LiveInput struct {
	Match Match
	// Stats is nil when the provider had no statistics for the match.
	Stats Statistics
	Now   time.Time
}

// LiveSnapshot is the aggregated statistics view used for live scoring.
type LiveSnapshot struct {
	GameTime      float64
	HomeScore     int
	AwayScore     int
	TotalShots    Pair
	ShotsOnTarget Pair
	ExpectedGoals Pair
	Fouls         Pair
	YellowCards   Pair
	RedCards      Pair
	Possession    Pair
	BigChances    Pair
}
