package sqlstore

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id                     TEXT PRIMARY KEY,
		competition_id         TEXT NOT NULL,
		season                 TEXT NOT NULL,
		home_team_id           TEXT NOT NULL,
		away_team_id           TEXT NOT NULL,
		kickoff_at             {{time}} NOT NULL,
		status                 TEXT NOT NULL,
		period                 TEXT NOT NULL DEFAULT '',
		second_period_start    {{time}},
		injury_time_1          INTEGER NOT NULL DEFAULT 0,
		injury_time_2          INTEGER NOT NULL DEFAULT 0,
		home_score             INTEGER NOT NULL DEFAULT 0,
		away_score             INTEGER NOT NULL DEFAULT 0,
		current_round          INTEGER,
		total_rounds           INTEGER,
		competition_rank_score {{float}} NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS matches_status_kickoff ON matches (status, kickoff_at)`,
	`CREATE TABLE IF NOT EXISTS standings (
		competition_id TEXT NOT NULL,
		season         TEXT NOT NULL,
		team_id        TEXT NOT NULL,
		position       INTEGER NOT NULL,
		points         INTEGER NOT NULL,
		played         INTEGER NOT NULL,
		PRIMARY KEY (competition_id, season, team_id)
	)`,
	`CREATE TABLE IF NOT EXISTS rivalries (
		team_a    TEXT NOT NULL,
		team_b    TEXT NOT NULL,
		intensity {{float}} NOT NULL,
		PRIMARY KEY (team_a, team_b)
	)`,
	`CREATE TABLE IF NOT EXISTS title_holders (
		competition_id TEXT NOT NULL,
		season         TEXT NOT NULL,
		team_id        TEXT NOT NULL,
		PRIMARY KEY (competition_id, season)
	)`,
	`CREATE TABLE IF NOT EXISTS live_statistics (
		match_id   TEXT NOT NULL,
		period     TEXT NOT NULL,
		stat_group TEXT NOT NULL,
		stat_name  TEXT NOT NULL,
		home_value {{float}} NOT NULL,
		away_value {{float}} NOT NULL,
		PRIMARY KEY (match_id, period, stat_group, stat_name)
	)`,
	`CREATE TABLE IF NOT EXISTS excitement_scores (
		match_id              TEXT PRIMARY KEY,
		prematch_score        {{float}},
		prematch_stage        TEXT NOT NULL DEFAULT '',
		prematch_breakdown    TEXT NOT NULL DEFAULT '',
		prematch_explanation  TEXT NOT NULL DEFAULT '',
		live_score            {{float}},
		live_breakdown        TEXT NOT NULL DEFAULT '',
		live_explanation      TEXT NOT NULL DEFAULT '',
		game_time             {{float}} NOT NULL DEFAULT 0,
		live_final            BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at            {{time}} NOT NULL
	)`,
}

// Migrate creates the tables if they do not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, r.dialect.ddl(stmt)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
