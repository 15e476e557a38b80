package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/matchpulse/internal/adapters/sqlstore"
	"github.com/okian/matchpulse/internal/config"
	"github.com/okian/matchpulse/internal/seed"
	"github.com/okian/matchpulse/pkg/logger"
)

const defaultSeedTimeout = 2 * time.Minute

func main() {
	cfg, err := config.Load(context.Background())
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	league := seed.DefaultConfig(time.Now())

	var (
		driver  = flag.String("driver", cfg.DatabaseDriver, "Database driver: sqlite or postgres")
		dsn     = flag.String("dsn", cfg.DatabaseDSN, "Database DSN")
		comp    = flag.String("competition", league.CompetitionID, "Competition id")
		season  = flag.String("season", league.Season, "Season label")
		teams   = flag.Int("teams", league.Teams, "Number of teams (rounded up to even)")
		played  = flag.Int("played", league.PlayedRounds, "Finished rounds before now")
		live    = flag.Int("live", league.Live, "Matches of the current round in play")
		rank    = flag.Float64("rank", league.RankScore, "Competition rank score in [0,1]")
		seedVal = flag.Uint64("seed", league.Seed, "Random seed")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	league.CompetitionID = *comp
	league.Season = *season
	league.Teams = *teams
	league.PlayedRounds = *played
	league.Live = *live
	league.RankScore = *rank
	league.Seed = *seedVal

	ctx, cancel := context.WithTimeout(context.Background(), defaultSeedTimeout)
	defer cancel()

	if err := run(ctx, *driver, *dsn, league); err != nil {
		os.Stderr.WriteString("Seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context, driver, dsn string, cfg seed.Config) error {
	repo, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	_, err = seed.Write(ctx, repo, seed.Generate(cfg))
	return err
}
