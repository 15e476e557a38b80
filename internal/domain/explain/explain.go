// Package explain renders a one-sentence summary of a score breakdown.
package explain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/matchpulse/internal/domain/model"
)

// Level is the qualitative band of an average contribution.
type Level string

// Excitement levels from highest to lowest.
const (
	LevelExceptional Level = "exceptional"
	LevelHigh        Level = "high"
	LevelModerate    Level = "moderate"
	LevelModest      Level = "modest"
	LevelLow         Level = "low"
)

// maxReasons caps how many signals a sentence names.
const maxReasons = 3

var phrases = map[string]string{
	// pre-match
	"competition": "a prestigious competition",
	"fixture":     "the point in the season",
	"form":        "the teams' recent form",
	"goals":       "free-scoring sides",
	"table":       "a tight league table",
	"headToHead":  "a history of decisive meetings",
	"titleHolder": "the reigning champion",
	"rivalry":     "a fierce rivalry",
	// live
	"scoreLine":     "a close score line",
	"shots":         "plenty of shots",
	"expectedGoals": "high-quality chances",
	"fouls":         "a free-flowing game",
	"cards":         "few cards",
	"possession":    "an even contest for the ball",
	"bigChances":    "big chances created",
}

// Classify maps an average contribution onto a Level.
func Classify(avg float64) Level {
	switch {
	case avg >= 0.8:
		return LevelExceptional
	case avg >= 0.6:
		return LevelHigh
	case avg >= 0.4:
		return LevelModerate
	case avg >= 0.2:
		return LevelModest
	default:
		return LevelLow
	}
}

// AverageContribution is the weighted mean of the raw values in b.
func AverageContribution(b model.Breakdown) float64 {
	var weighted, weights float64
	for _, c := range b {
		weighted += c.Weighted
		weights += c.Weight
	}
	if weights == 0 {
		return 0
	}
	return weighted / weights
}

// TopSignals returns up to three names ordered by weighted contribution.
// Only positive contributions are named, unless none is positive, in which
// case the single largest is returned.
func TopSignals(b model.Breakdown) []string {
	if len(b) == 0 {
		return nil
	}
	sorted := make(model.Breakdown, len(b))
	copy(sorted, b)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weighted > sorted[j].Weighted
	})

	names := make([]string, 0, maxReasons)
	for _, c := range sorted {
		if len(names) == maxReasons || c.Weighted <= 0 {
			break
		}
		names = append(names, c.Name)
	}
	if len(names) == 0 {
		names = append(names, sorted[0].Name)
	}
	return names
}

// Explain renders a sentence describing b. An empty breakdown yields "".
func Explain(b model.Breakdown) string {
	if len(b) == 0 {
		return ""
	}
	level := Classify(AverageContribution(b))

	top := TopSignals(b)
	reasons := make([]string, 0, len(top))
	for _, name := range top {
		reasons = append(reasons, phrase(name))
	}
	return fmt.Sprintf("Expect %s excitement, driven by %s.", level, joinReasons(reasons))
}

func phrase(name string) string {
	if p, ok := phrases[name]; ok {
		return p
	}
	return name
}

func joinReasons(r []string) string {
	switch len(r) {
	case 0:
		return ""
	case 1:
		return r[0]
	case 2:
		return r[0] + " and " + r[1]
	default:
		return strings.Join(r[:len(r)-1], ", ") + " and " + r[len(r)-1]
	}
}
