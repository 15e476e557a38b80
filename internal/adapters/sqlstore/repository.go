// Package sqlstore is the SQL match repository. It resolves match contexts
// and live inputs for the engines and persists computed scores. sqlite and
// postgres are supported through database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/matchpulse/internal/domain/model"
)

// resultsLookback bounds the finished matches loaded per context.
const resultsLookback = 200

// Repository reads and writes match data.
type Repository struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to the database named by driver and dsn.
func Open(ctx context.Context, driver, dsn string) (*Repository, error) {
	d, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(string(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	if d == SQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	return New(db, d), nil
}

// New wraps an existing handle.
func New(db *sql.DB, d Dialect) *Repository {
	return &Repository{db: db, dialect: d}
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, r.dialect.rebind(q), args...)
}

func (r *Repository) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.dialect.rebind(q), args...)
}

func (r *Repository) exec(ctx context.Context, q string, args ...any) error {
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(q), args...)
	return err
}

// ts normalizes times so sqlite text comparisons order correctly.
func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// ListUpcoming returns scheduled matches kicking off in [from, to].
func (r *Repository) ListUpcoming(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := r.query(ctx,
		`SELECT id FROM matches WHERE status = ? AND kickoff_at >= ? AND kickoff_at <= ? ORDER BY kickoff_at, id`,
		string(model.StatusScheduled), ts(from), ts(to))
	if err != nil {
		return nil, fmt.Errorf("list upcoming: %w", err)
	}
	return scanIDs(rows)
}

// ListLive returns matches currently in play, plus finished matches that
// were scored live but whose full-time score is not stored yet.
func (r *Repository) ListLive(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx,
		`SELECT m.id FROM matches m
		LEFT JOIN excitement_scores s ON s.match_id = m.id
		WHERE m.status = ?
			OR (m.status = ? AND s.live_score IS NOT NULL AND NOT s.live_final)
		ORDER BY m.kickoff_at, m.id`,
		string(model.StatusLive), string(model.StatusFinished))
	if err != nil {
		return nil, fmt.Errorf("list live: %w", err)
	}
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const matchColumns = `id, competition_id, season, home_team_id, away_team_id, kickoff_at, status, period,
	second_period_start, injury_time_1, injury_time_2, home_score, away_score,
	current_round, total_rounds, competition_rank_score`

// Match loads one match row.
func (r *Repository) Match(ctx context.Context, id string) (model.Match, error) {
	var (
		m              model.Match
		status         string
		period         string
		secondPeriod   sql.NullTime
		current, total sql.NullInt64
	)
	err := r.queryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id).Scan(
		&m.ID, &m.CompetitionID, &m.Season, &m.HomeTeamID, &m.AwayTeamID, &m.KickoffAt, &status, &period,
		&secondPeriod, &m.InjuryTime1, &m.InjuryTime2, &m.HomeScore, &m.AwayScore,
		&current, &total, &m.CompetitionRankScore,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Match{}, fmt.Errorf("match %s: %w", id, model.ErrMatchNotFound)
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("load match %s: %w", id, err)
	}
	m.Status = model.Status(status)
	m.Period = model.Period(period)
	m.KickoffAt = m.KickoffAt.UTC()
	if secondPeriod.Valid {
		m.SecondPeriodStart = secondPeriod.Time.UTC()
	}
	if current.Valid {
		m.CurrentRound = model.Int(int(current.Int64))
	}
	if total.Valid {
		m.TotalRounds = model.Int(int(total.Int64))
	}
	return m, nil
}

// MatchContext joins a match with its standings, results, rivalry and title holder.
func (r *Repository) MatchContext(ctx context.Context, id string) (model.MatchContext, error) {
	m, err := r.Match(ctx, id)
	if err != nil {
		return model.MatchContext{}, err
	}

	mc := model.MatchContext{
		MatchID:              m.ID,
		HomeTeamID:           m.HomeTeamID,
		AwayTeamID:           m.AwayTeamID,
		CompetitionRankScore: m.CompetitionRankScore,
		CurrentRound:         m.CurrentRound,
		TotalRounds:          m.TotalRounds,
	}

	if err := r.loadStandings(ctx, m, &mc); err != nil {
		return model.MatchContext{}, err
	}

	results, err := r.results(ctx, []string{m.HomeTeamID, m.AwayTeamID}, m.KickoffAt)
	if err != nil {
		return model.MatchContext{}, err
	}
	mc.HomeForm = model.FormFromResults(m.HomeTeamID, results)
	mc.AwayForm = model.FormFromResults(m.AwayTeamID, results)
	mc.HeadToHead = model.HeadToHeadFromResults(m.HomeTeamID, m.AwayTeamID, results, m.KickoffAt)

	if mc.Rivalry, err = r.rivalry(ctx, m.HomeTeamID, m.AwayTeamID); err != nil {
		return model.MatchContext{}, err
	}
	if mc.TitleHolderID, err = r.titleHolder(ctx, m.CompetitionID, m.Season); err != nil {
		return model.MatchContext{}, err
	}
	return mc, nil
}

func (r *Repository) loadStandings(ctx context.Context, m model.Match, mc *model.MatchContext) error {
	rows, err := r.query(ctx,
		`SELECT team_id, position, points, played FROM standings WHERE competition_id = ? AND season = ?`,
		m.CompetitionID, m.Season)
	if err != nil {
		return fmt.Errorf("load standings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			teamID string
			row    model.TableRow
		)
		if err := rows.Scan(&teamID, &row.Position, &row.Points, &row.Matches); err != nil {
			return fmt.Errorf("scan standing: %w", err)
		}
		mc.StandingsRows++
		switch teamID {
		case m.HomeTeamID:
			mc.HomeRow = row
		case m.AwayTeamID:
			mc.AwayRow = row
		}
	}
	mc.TotalTeams = mc.StandingsRows
	return rows.Err()
}

// results loads finished matches involving any of teams before kickoff, newest first.
func (r *Repository) results(ctx context.Context, teams []string, before time.Time) ([]model.Result, error) {
	homeIn, homeArgs := r.dialect.inList("home_team_id", teams)
	awayIn, awayArgs := r.dialect.inList("away_team_id", teams)

	args := []any{string(model.StatusFinished), ts(before)}
	args = append(args, homeArgs...)
	args = append(args, awayArgs...)
	args = append(args, resultsLookback)

	rows, err := r.query(ctx,
		`SELECT home_team_id, away_team_id, home_score, away_score, kickoff_at FROM matches
		WHERE status = ? AND kickoff_at < ? AND (`+homeIn+` OR `+awayIn+`)
		ORDER BY kickoff_at DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()

	var out []model.Result
	for rows.Next() {
		var res model.Result
		if err := rows.Scan(&res.HomeTeamID, &res.AwayTeamID, &res.HomeGoals, &res.AwayGoals, &res.PlayedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.PlayedAt = res.PlayedAt.UTC()
		out = append(out, res)
	}
	return out, rows.Err()
}

// pairKey orders two team ids so a rivalry is stored once.
func pairKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (r *Repository) rivalry(ctx context.Context, home, away string) (*float64, error) {
	a, b := pairKey(home, away)
	var v float64
	err := r.queryRow(ctx, `SELECT intensity FROM rivalries WHERE team_a = ? AND team_b = ?`, a, b).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rivalry: %w", err)
	}
	return &v, nil
}

func (r *Repository) titleHolder(ctx context.Context, competitionID, season string) (string, error) {
	var id string
	err := r.queryRow(ctx,
		`SELECT team_id FROM title_holders WHERE competition_id = ? AND season = ?`,
		competitionID, season).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load title holder: %w", err)
	}
	return id, nil
}

// LiveInput loads the match state and its statistics. Stats is nil when the
// match has no statistics yet.
func (r *Repository) LiveInput(ctx context.Context, id string, now time.Time) (model.LiveInput, error) {
	m, err := r.Match(ctx, id)
	if err != nil {
		return model.LiveInput{}, err
	}

	rows, err := r.query(ctx,
		`SELECT period, stat_group, stat_name, home_value, away_value FROM live_statistics WHERE match_id = ?`, id)
	if err != nil {
		return model.LiveInput{}, fmt.Errorf("load statistics: %w", err)
	}
	defer rows.Close()

	var stats model.Statistics
	for rows.Next() {
		var (
			k    model.StatKey
			home float64
			away float64
		)
		if err := rows.Scan(&k.Period, &k.Group, &k.Name, &home, &away); err != nil {
			return model.LiveInput{}, fmt.Errorf("scan statistic: %w", err)
		}
		if stats == nil {
			stats = model.Statistics{}
		}
		stats[k] = model.Pair{Home: home, Away: away}
	}
	if err := rows.Err(); err != nil {
		return model.LiveInput{}, fmt.Errorf("load statistics: %w", err)
	}
	return model.LiveInput{Match: m, Stats: stats, Now: now}, nil
}

// Score loads the persisted record of a match.
func (r *Repository) Score(ctx context.Context, id string) (model.ScoreRecord, error) {
	var (
		rec               model.ScoreRecord
		pre, live         sql.NullFloat64
		preJSON, liveJSON string
	)
	err := r.queryRow(ctx,
		`SELECT match_id, prematch_score, prematch_stage, prematch_breakdown, prematch_explanation,
			live_score, live_breakdown, live_explanation, game_time, live_final, updated_at
		FROM excitement_scores WHERE match_id = ?`, id).Scan(
		&rec.MatchID, &pre, &rec.PreMatchStage, &preJSON, &rec.PreMatchExplanation,
		&live, &liveJSON, &rec.LiveExplanation, &rec.GameTime, &rec.LiveFinal, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScoreRecord{}, fmt.Errorf("match %s: %w", id, ErrScoreNotFound)
	}
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("load score %s: %w", id, err)
	}

	rec.UpdatedAt = rec.UpdatedAt.UTC()
	if pre.Valid {
		rec.PreMatch = model.Float64(pre.Float64)
	}
	if live.Valid {
		rec.Live = model.Float64(live.Float64)
	}
	if rec.PreMatchBreakdown, err = decodeBreakdown(preJSON); err != nil {
		return model.ScoreRecord{}, err
	}
	if rec.LiveBreakdown, err = decodeBreakdown(liveJSON); err != nil {
		return model.ScoreRecord{}, err
	}
	return rec, nil
}

func encodeBreakdown(b model.Breakdown) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode breakdown: %w", err)
	}
	return string(raw), nil
}

func decodeBreakdown(s string) (model.Breakdown, error) {
	if s == "" {
		return nil, nil
	}
	var b model.Breakdown
	if err := json.Unmarshal([]byte(s), &b); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	return b, nil
}
