package sqlstore

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/matchpulse/internal/domain/model"
)

// SavePreMatch upserts the pre-match half of a score record.
func (r *Repository) SavePreMatch(ctx context.Context, rec model.ScoreRecord) error {
	if rec.PreMatch == nil {
		return fmt.Errorf("save prematch %s: missing score", rec.MatchID)
	}
	breakdown, err := encodeBreakdown(rec.PreMatchBreakdown)
	if err != nil {
		return err
	}
	err = r.exec(ctx,
		`INSERT INTO excitement_scores
			(match_id, prematch_score, prematch_stage, prematch_breakdown, prematch_explanation, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			prematch_score = excluded.prematch_score,
			prematch_stage = excluded.prematch_stage,
			prematch_breakdown = excluded.prematch_breakdown,
			prematch_explanation = excluded.prematch_explanation,
			updated_at = excluded.updated_at`,
		rec.MatchID, *rec.PreMatch, rec.PreMatchStage, breakdown, rec.PreMatchExplanation, ts(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save prematch %s: %w", rec.MatchID, err)
	}
	return nil
}

// SaveLive upserts the live half of a score record.
func (r *Repository) SaveLive(ctx context.Context, rec model.ScoreRecord) error {
	if rec.Live == nil {
		return fmt.Errorf("save live %s: missing score", rec.MatchID)
	}
	breakdown, err := encodeBreakdown(rec.LiveBreakdown)
	if err != nil {
		return err
	}
	err = r.exec(ctx,
		`INSERT INTO excitement_scores
			(match_id, live_score, live_breakdown, live_explanation, game_time, live_final, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id) DO UPDATE SET
			live_score = excluded.live_score,
			live_breakdown = excluded.live_breakdown,
			live_explanation = excluded.live_explanation,
			game_time = excluded.game_time,
			live_final = excluded.live_final,
			updated_at = excluded.updated_at`,
		rec.MatchID, *rec.Live, breakdown, rec.LiveExplanation, rec.GameTime, rec.LiveFinal, ts(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save live %s: %w", rec.MatchID, err)
	}
	return nil
}

// UpsertTeam stores a team.
func (r *Repository) UpsertTeam(ctx context.Context, id, name string) error {
	err := r.exec(ctx,
		`INSERT INTO teams (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`, id, name)
	if err != nil {
		return fmt.Errorf("upsert team %s: %w", id, err)
	}
	return nil
}

// UpsertMatch stores a match, replacing every column of an existing row.
func (r *Repository) UpsertMatch(ctx context.Context, m model.Match) error {
	var secondPeriod any
	if !m.SecondPeriodStart.IsZero() {
		secondPeriod = ts(m.SecondPeriodStart)
	}
	err := r.exec(ctx,
		`INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			competition_id = excluded.competition_id,
			season = excluded.season,
			home_team_id = excluded.home_team_id,
			away_team_id = excluded.away_team_id,
			kickoff_at = excluded.kickoff_at,
			status = excluded.status,
			period = excluded.period,
			second_period_start = excluded.second_period_start,
			injury_time_1 = excluded.injury_time_1,
			injury_time_2 = excluded.injury_time_2,
			home_score = excluded.home_score,
			away_score = excluded.away_score,
			current_round = excluded.current_round,
			total_rounds = excluded.total_rounds,
			competition_rank_score = excluded.competition_rank_score`,
		m.ID, m.CompetitionID, m.Season, m.HomeTeamID, m.AwayTeamID, ts(m.KickoffAt),
		string(m.Status), string(m.Period), secondPeriod, m.InjuryTime1, m.InjuryTime2,
		m.HomeScore, m.AwayScore, nullInt(m.CurrentRound), nullInt(m.TotalRounds), m.CompetitionRankScore,
	)
	if err != nil {
		return fmt.Errorf("upsert match %s: %w", m.ID, err)
	}
	return nil
}

// UpsertStanding stores a team's row in a competition table.
func (r *Repository) UpsertStanding(ctx context.Context, competitionID, season, teamID string, row model.TableRow) error {
	err := r.exec(ctx,
		`INSERT INTO standings (competition_id, season, team_id, position, points, played)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (competition_id, season, team_id) DO UPDATE SET
			position = excluded.position,
			points = excluded.points,
			played = excluded.played`,
		competitionID, season, teamID, row.Position, row.Points, row.Matches)
	if err != nil {
		return fmt.Errorf("upsert standing %s: %w", teamID, err)
	}
	return nil
}

// UpsertRivalry stores the intensity of a team pair, clamped to [0,1].
// The pair is unordered.
func (r *Repository) UpsertRivalry(ctx context.Context, teamA, teamB string, intensity float64) error {
	a, b := pairKey(teamA, teamB)
	intensity = math.Max(0, math.Min(1, intensity))
	err := r.exec(ctx,
		`INSERT INTO rivalries (team_a, team_b, intensity) VALUES (?, ?, ?)
		ON CONFLICT (team_a, team_b) DO UPDATE SET intensity = excluded.intensity`,
		a, b, intensity)
	if err != nil {
		return fmt.Errorf("upsert rivalry %s-%s: %w", a, b, err)
	}
	return nil
}

// SetTitleHolder records the winner of the previous edition for a season.
func (r *Repository) SetTitleHolder(ctx context.Context, competitionID, season, teamID string) error {
	err := r.exec(ctx,
		`INSERT INTO title_holders (competition_id, season, team_id) VALUES (?, ?, ?)
		ON CONFLICT (competition_id, season) DO UPDATE SET team_id = excluded.team_id`,
		competitionID, season, teamID)
	if err != nil {
		return fmt.Errorf("set title holder %s/%s: %w", competitionID, season, err)
	}
	return nil
}

// SetStatistic stores one provider statistic for a match.
func (r *Repository) SetStatistic(ctx context.Context, matchID string, k model.StatKey, v model.Pair) error {
	err := r.exec(ctx,
		`INSERT INTO live_statistics (match_id, period, stat_group, stat_name, home_value, away_value)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (match_id, period, stat_group, stat_name) DO UPDATE SET
			home_value = excluded.home_value,
			away_value = excluded.away_value`,
		matchID, k.Period, k.Group, k.Name, v.Home, v.Away)
	if err != nil {
		return fmt.Errorf("set statistic %s %q: %w", matchID, k.Name, err)
	}
	return nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
