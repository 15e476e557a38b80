package seed

import "time"

// Config shapes the generated league.
type Config struct {
	CompetitionID string
	Season        string
	Teams         int     // even; rounded up when odd
	PlayedRounds  int     // finished rounds before Now
	Live          int     // matches of the current round in play at Now
	RankScore     float64 // competition rank score of every match
	Seed          uint64
	Now           time.Time
}

// DefaultConfig returns a 20-team league three quarters of the way through.
func DefaultConfig(now time.Time) Config {
	return Config{
		CompetitionID: "premier-league",
		Season:        "2025",
		Teams:         20,
		PlayedRounds:  28,
		Live:          3,
		RankScore:     1,
		Seed:          1,
		Now:           now,
	}
}
