package scoring

import "github.com/okian/matchpulse/internal/domain/signals"

// Weights holds one weight per signal, indexed by signals.Signal.
type Weights [signals.Count]float64

// Sum adds up every weight.
func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Of returns the weight of s.
func (w Weights) Of(s signals.Signal) float64 {
	if s < 0 || int(s) >= signals.Count {
		return 0
	}
	return w[s]
}

// profiles is keyed by Stage. Each row sums to 1.
var profiles = [...]Weights{
	StageRegular: {
		signals.Competition: 0.05,
		signals.Fixture:     0.25,
		signals.Form:        0.05,
		signals.Goals:       0.20,
		signals.Table:       0.33,
		signals.HeadToHead:  0.05,
		signals.TitleHolder: 0.05,
		signals.Rivalry:     0.02,
	},
	StageLate: {
		signals.Competition: 0.15,
		signals.Fixture:     0.10,
		signals.Form:        0.10,
		signals.Goals:       0.15,
		signals.Table:       0.15,
		signals.HeadToHead:  0.10,
		signals.TitleHolder: 0.10,
		signals.Rivalry:     0.15,
	},
}

// Profile returns the weight set for a stage.
func Profile(s Stage) Weights {
	if s == StageLate {
		return profiles[StageLate]
	}
	return profiles[StageRegular]
}
