package model

import "time"

// JobKind selects which engine a job runs.
type JobKind string

// Job kinds.
const (
	JobPreMatch JobKind = "prematch"
	JobLive     JobKind = "live"
)

// Job asks a worker to (re)score one match.
type Job struct {
	ID         string    // unique id for tracing
	MatchID    string    // match to score
	Kind       JobKind   // engine to run
	EnqueuedAt time.Time // when the sweep queued it
}

// Key identifies the job for deduplication; two pending jobs with the same
// key do the same work.
func (j Job) Key() string {
	return string(j.Kind) + ":" + j.MatchID
}
