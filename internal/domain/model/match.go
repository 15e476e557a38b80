package model

import (
	"sort"
	"time"
)

// HeadToHeadWindow bounds how far back meetings count towards HeadToHead.
const HeadToHeadWindow = 2 * 365 * 24 * time.Hour

// HeadToHeadGames caps the number of meetings counted.
const HeadToHeadGames = 5

// Status is the lifecycle state of a match.
type Status string

// Match statuses.
const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// Period is the in-play period reported for a live match.
type Period string

// Match periods. PeriodNone is reported once a match has finished.
const (
	PeriodNone   Period = ""
	PeriodFirst  Period = "1st"
	PeriodSecond Period = "2nd"
	PeriodBreak  Period = "halftime"
)

// Match is a fixture as stored by the match repository.
type Match struct {
	ID            string
	CompetitionID string
	Season        string
	HomeTeamID    string
	AwayTeamID    string
	KickoffAt     time.Time
	Status        Status
	Period        Period

	// SecondPeriodStart is set once the second half kicks off.
	SecondPeriodStart time.Time
	InjuryTime1       int
	InjuryTime2       int

	HomeScore int
	AwayScore int

	CurrentRound *int
	TotalRounds  *int

	CompetitionRankScore float64
}

// Result is a finished match used to derive form and head-to-head tallies.
type Result struct {
	HomeTeamID string
	AwayTeamID string
	HomeGoals  int
	AwayGoals  int
	PlayedAt   time.Time
}

// FormFromResults builds a team's form from its most recent results.
// Only the latest FormWindow results involving teamID are counted.
func FormFromResults(teamID string, results []Result) Form {
	played := make([]Result, 0, len(results))
	for _, r := range results {
		if r.HomeTeamID == teamID || r.AwayTeamID == teamID {
			played = append(played, r)
		}
	}
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].PlayedAt.After(played[j].PlayedAt)
	})
	if len(played) > FormWindow {
		played = played[:FormWindow]
	}

	var f Form
	for _, r := range played {
		scored, conceded := r.HomeGoals, r.AwayGoals
		if r.AwayTeamID == teamID {
			scored, conceded = conceded, scored
		}
		f.Matches++
		f.GoalsFor += scored
		switch {
		case scored > conceded:
			f.Wins++
		case scored == conceded:
			f.Draws++
		}
	}
	return f
}

// HeadToHeadFromResults tallies up to HeadToHeadGames meetings between the
// two teams played within HeadToHeadWindow before now. Wins are attributed to
// the team, not to the venue of the meeting.
func HeadToHeadFromResults(homeTeamID, awayTeamID string, results []Result, now time.Time) HeadToHead {
	cutoff := now.Add(-HeadToHeadWindow)
	meetings := make([]Result, 0, len(results))
	for _, r := range results {
		pair := (r.HomeTeamID == homeTeamID && r.AwayTeamID == awayTeamID) ||
			(r.HomeTeamID == awayTeamID && r.AwayTeamID == homeTeamID)
		if !pair || r.PlayedAt.Before(cutoff) || r.PlayedAt.After(now) {
			continue
		}
		meetings = append(meetings, r)
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].PlayedAt.After(meetings[j].PlayedAt)
	})
	if len(meetings) > HeadToHeadGames {
		meetings = meetings[:HeadToHeadGames]
	}

	var h HeadToHead
	for _, r := range meetings {
		switch {
		case r.HomeGoals == r.AwayGoals:
			h.Draws++
		case (r.HomeGoals > r.AwayGoals) == (r.HomeTeamID == homeTeamID):
			h.HomeWins++
		default:
			h.AwayWins++
		}
	}
	return h
}
