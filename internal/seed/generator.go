// Package seed fills a match database with a synthetic league.
package seed

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchpulse/internal/domain/live"
	"github.com/okian/matchpulse/internal/domain/model"
)

const (
	daysPerRound   = 7
	kickoffHour    = 15
	maxGoals       = 5
	maxRivalries   = 4
	matchesPerHour = 2
)

// Team is a generated club.
type Team struct {
	ID   string
	Name string
}

// Standing is one team's table row.
type Standing struct {
	TeamID string
	Row    model.TableRow
}

// Rivalry is a generated team pair with its intensity.
type Rivalry struct {
	TeamA, TeamB string
	Intensity    float64
}

// League is everything the seeder writes.
type League struct {
	CompetitionID string
	Season        string
	Teams         []Team
	Matches       []model.Match
	Standings     []Standing
	Rivalries     []Rivalry
	TitleHolderID string
	Statistics    map[string]model.Statistics
}

var clubNames = []string{
	"Ashford", "Bramley", "Carlton", "Dunmore", "Easton", "Fenwick", "Glenbrook", "Harlow",
	"Ingleby", "Jarrow", "Kingsway", "Langley", "Marston", "Newbury", "Oakham", "Penrith",
	"Queensbury", "Redhill", "Selby", "Thornbury", "Upton", "Ventnor", "Whitby", "Yarmouth",
}

// Generate builds a league from cfg. The same config yields the same league.
func Generate(cfg Config) League {
	if cfg.Teams < 2 {
		cfg.Teams = 2
	}
	if cfg.Teams%2 == 1 {
		cfg.Teams++
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], cfg.Seed)
	src := rand.NewChaCha8(seed)
	rng := rand.New(src)

	g := &generator{cfg: cfg, rng: rng, ids: src}
	return g.league()
}

type generator struct {
	cfg Config
	rng *rand.Rand
	ids *rand.ChaCha8
}

func (g *generator) newID() string {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		// ChaCha8 reads never fail
		panic(err)
	}
	return id.String()
}

func (g *generator) league() League {
	l := League{
		CompetitionID: g.cfg.CompetitionID,
		Season:        g.cfg.Season,
		Statistics:    map[string]model.Statistics{},
	}
	for i := 0; i < g.cfg.Teams; i++ {
		name := fmt.Sprintf("Team %d", i+1)
		if i < len(clubNames) {
			name = clubNames[i]
		}
		l.Teams = append(l.Teams, Team{ID: g.newID(), Name: name})
	}

	rounds := roundRobin(len(l.Teams))
	totalRounds := len(rounds)
	played := min(max(g.cfg.PlayedRounds, 0), totalRounds-1)
	currentStart := g.cfg.Now.UTC().Truncate(time.Hour)

	for r, pairs := range rounds {
		round := r + 1
		var roundStart time.Time
		switch {
		case r < played:
			roundStart = currentStart.AddDate(0, 0, -daysPerRound*(played-r))
		case r == played:
			roundStart = currentStart
		default:
			roundStart = currentStart.AddDate(0, 0, daysPerRound*(r-played)).
				Add(time.Duration(kickoffHour-currentStart.Hour()) * time.Hour)
		}

		for i, p := range pairs {
			m := model.Match{
				ID:                   g.newID(),
				CompetitionID:        l.CompetitionID,
				Season:               l.Season,
				HomeTeamID:           l.Teams[p[0]].ID,
				AwayTeamID:           l.Teams[p[1]].ID,
				KickoffAt:            roundStart.Add(time.Duration(i/matchesPerHour) * time.Hour),
				Status:               model.StatusScheduled,
				CurrentRound:         model.Int(round),
				TotalRounds:          model.Int(totalRounds),
				CompetitionRankScore: g.cfg.RankScore,
			}
			switch {
			case r < played:
				m.Status = model.StatusFinished
				m.HomeScore, m.AwayScore = g.rng.IntN(maxGoals), g.rng.IntN(maxGoals)
			case r == played && i < g.cfg.Live:
				g.inPlay(&m)
				l.Statistics[m.ID] = g.statistics(m)
			case r == played:
				m.KickoffAt = currentStart.Add(time.Duration(i+1) * time.Hour)
			}
			l.Matches = append(l.Matches, m)
		}
	}

	l.Standings = standings(l.Matches)
	l.Rivalries = g.rivalries(l.Teams)
	l.TitleHolderID = l.Teams[g.rng.IntN(len(l.Teams))].ID
	return l
}

// inPlay turns m into a second-half match kicked off before Now.
func (g *generator) inPlay(m *model.Match) {
	minute := 50 + g.rng.IntN(40)
	injury := g.rng.IntN(4)
	now := g.cfg.Now.UTC().Truncate(time.Minute)

	m.Status = model.StatusLive
	m.Period = model.PeriodSecond
	m.InjuryTime1 = injury
	m.SecondPeriodStart = now.Add(-time.Duration(minute-45-injury) * time.Minute)
	m.KickoffAt = m.SecondPeriodStart.Add(-time.Duration(60+injury) * time.Minute)
	m.HomeScore, m.AwayScore = g.rng.IntN(4), g.rng.IntN(4)
}

func (g *generator) statistics(m model.Match) model.Statistics {
	s := model.Statistics{}
	shotsHome, shotsAway := float64(4+g.rng.IntN(14)), float64(2+g.rng.IntN(12))
	possession := float64(35 + g.rng.IntN(31))

	s.Set(live.PeriodAll, live.GroupOverview, live.StatTotalShots, shotsHome, shotsAway)
	s.Set(live.PeriodAll, live.GroupShots, live.StatShotsOnTarget,
		float64(g.rng.IntN(int(shotsHome)+1)), float64(g.rng.IntN(int(shotsAway)+1)))
	s.Set(live.PeriodAll, live.GroupOverview, live.StatExpectedGoals,
		round2(g.rng.Float64()*2.5), round2(g.rng.Float64()*2))
	s.Set(live.PeriodAll, live.GroupOverview, live.StatFouls, float64(3+g.rng.IntN(12)), float64(3+g.rng.IntN(12)))
	s.Set(live.PeriodAll, live.GroupOverview, live.StatYellowCards, float64(g.rng.IntN(4)), float64(g.rng.IntN(4)))
	s.Set(live.PeriodAll, live.GroupOverview, live.StatPossession, possession, 100-possession)
	s.Set(live.PeriodAll, live.GroupAttack, live.StatBigChances, float64(g.rng.IntN(5)), float64(g.rng.IntN(4)))
	if g.rng.IntN(5) == 0 {
		s.Set(live.PeriodAll, live.GroupOverview, live.StatRedCards, float64(g.rng.IntN(2)), float64(g.rng.IntN(2)))
	}
	return s
}

func (g *generator) rivalries(teams []Team) []Rivalry {
	n := min(maxRivalries, len(teams)/2)
	perm := g.rng.Perm(len(teams))
	out := make([]Rivalry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Rivalry{
			TeamA:     teams[perm[2*i]].ID,
			TeamB:     teams[perm[2*i+1]].ID,
			Intensity: round2(0.5 + g.rng.Float64()/2),
		})
	}
	return out
}

// roundRobin pairs n teams (n even) over 2(n-1) rounds with the circle
// method; the second half mirrors the first with venues swapped.
func roundRobin(n int) [][][2]int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	half := n - 1
	rounds := make([][][2]int, 0, 2*half)
	for r := 0; r < half; r++ {
		pairs := make([][2]int, 0, n/2)
		for i := 0; i < n/2; i++ {
			home, away := idx[i], idx[n-1-i]
			if r%2 == 1 {
				home, away = away, home
			}
			pairs = append(pairs, [2]int{home, away})
		}
		rounds = append(rounds, pairs)
		// rotate all but the first
		last := idx[n-1]
		copy(idx[2:], idx[1:n-1])
		idx[1] = last
	}
	for r := 0; r < half; r++ {
		mirrored := make([][2]int, len(rounds[r]))
		for i, p := range rounds[r] {
			mirrored[i] = [2]int{p[1], p[0]}
		}
		rounds = append(rounds, mirrored)
	}
	return rounds
}

// standings ranks teams by points, then goal difference, then goals scored.
func standings(matches []model.Match) []Standing {
	type tally struct {
		id                  string
		points, played      int
		goalsFor, goalsAway int
	}
	byID := map[string]*tally{}
	get := func(id string) *tally {
		t, ok := byID[id]
		if !ok {
			t = &tally{id: id}
			byID[id] = t
		}
		return t
	}
	for _, m := range matches {
		home, away := get(m.HomeTeamID), get(m.AwayTeamID)
		if m.Status != model.StatusFinished {
			continue
		}
		home.played++
		away.played++
		home.goalsFor += m.HomeScore
		home.goalsAway += m.AwayScore
		away.goalsFor += m.AwayScore
		away.goalsAway += m.HomeScore
		switch {
		case m.HomeScore > m.AwayScore:
			home.points += 3
		case m.HomeScore < m.AwayScore:
			away.points += 3
		default:
			home.points++
			away.points++
		}
	}

	all := make([]*tally, 0, len(byID))
	for _, t := range byID {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.points != b.points {
			return a.points > b.points
		}
		if da, db := a.goalsFor-a.goalsAway, b.goalsFor-b.goalsAway; da != db {
			return da > db
		}
		if a.goalsFor != b.goalsFor {
			return a.goalsFor > b.goalsFor
		}
		return a.id < b.id
	})

	out := make([]Standing, len(all))
	for i, t := range all {
		out[i] = Standing{TeamID: t.id, Row: model.TableRow{Position: i + 1, Points: t.points, Matches: t.played}}
	}
	return out
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
