package scoring

// Stage classifies where a match sits in its season.
type Stage int

// Season stages.
const (
	StageRegular Stage = iota
	StageLate
)

// lateStageThreshold is the share of rounds after which a season is late.
const lateStageThreshold = 0.8

// String returns the stage name.
func (s Stage) String() string {
	if s == StageLate {
		return "late"
	}
	return "regular"
}

// IsLateStage reports whether the fixture falls in the late part of the season.
// A season only counts as late when it has more rounds than standings rows.
func IsLateStage(currentRound, totalRounds *int, standingsRows int) bool {
	if currentRound == nil || totalRounds == nil || *totalRounds == 0 {
		return false
	}
	stagePct := float64(*currentRound) / float64(*totalRounds)
	return stagePct > lateStageThreshold && *totalRounds > standingsRows
}

// DetectStage maps IsLateStage onto a Stage.
func DetectStage(currentRound, totalRounds *int, standingsRows int) Stage {
	if IsLateStage(currentRound, totalRounds, standingsRows) {
		return StageLate
	}
	return StageRegular
}
