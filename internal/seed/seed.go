package seed

import (
	"context"
	"fmt"

	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/pkg/logger"
)

// Writer is the persistence a league is written to.
type Writer interface {
	UpsertTeam(ctx context.Context, id, name string) error
	UpsertMatch(ctx context.Context, m model.Match) error
	UpsertStanding(ctx context.Context, competitionID, season, teamID string, row model.TableRow) error
	UpsertRivalry(ctx context.Context, teamA, teamB string, intensity float64) error
	SetTitleHolder(ctx context.Context, competitionID, season, teamID string) error
	SetStatistic(ctx context.Context, matchID string, k model.StatKey, v model.Pair) error
}

// Stats counts what Write stored.
type Stats struct {
	Teams      int
	Finished   int
	Scheduled  int
	Live       int
	Statistics int
}

// Write stores l through w.
func Write(ctx context.Context, w Writer, l League) (Stats, error) {
	var st Stats
	log := logger.Get().Named("seed")

	for _, t := range l.Teams {
		if err := w.UpsertTeam(ctx, t.ID, t.Name); err != nil {
			return st, err
		}
		st.Teams++
	}
	for _, m := range l.Matches {
		if err := ctx.Err(); err != nil {
			return st, fmt.Errorf("seed cancelled: %w", err)
		}
		if err := w.UpsertMatch(ctx, m); err != nil {
			return st, err
		}
		switch m.Status {
		case model.StatusFinished:
			st.Finished++
		case model.StatusLive:
			st.Live++
		default:
			st.Scheduled++
		}
	}
	for _, s := range l.Standings {
		if err := w.UpsertStanding(ctx, l.CompetitionID, l.Season, s.TeamID, s.Row); err != nil {
			return st, err
		}
	}
	for _, r := range l.Rivalries {
		if err := w.UpsertRivalry(ctx, r.TeamA, r.TeamB, r.Intensity); err != nil {
			return st, err
		}
	}
	if l.TitleHolderID != "" {
		if err := w.SetTitleHolder(ctx, l.CompetitionID, l.Season, l.TitleHolderID); err != nil {
			return st, err
		}
	}
	for matchID, stats := range l.Statistics {
		for k, v := range stats {
			if err := w.SetStatistic(ctx, matchID, k, v); err != nil {
				return st, err
			}
			st.Statistics++
		}
	}

	log.Info(ctx, "league seeded",
		logger.String("competition", l.CompetitionID),
		logger.Int("teams", st.Teams),
		logger.Int("finished", st.Finished),
		logger.Int("scheduled", st.Scheduled),
		logger.Int("live", st.Live),
	)
	return st, nil
}
