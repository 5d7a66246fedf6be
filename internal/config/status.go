package config

// JobStatus is the lifecycle state of a job in the jobs table. The values
// must match the text stored in the database (jobs.status). Centralizing
// them here avoids scattering string literals across packages.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusProcessing JobStatus = "PROCESSING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
)

var AllStatuses = []JobStatus{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

// transitions is the full state machine:
// PENDING -> PROCESSING -> {COMPLETED, PENDING (retry), FAILED (retries exhausted)}.
// COMPLETED and FAILED are terminal; re-enqueue of a terminal job is a row
// reset, not a transition, so it is not listed here.
var transitions = map[JobStatus][]JobStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusPending, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

func (s JobStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further automatic transition leaves s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the state machine permits moving a job
// from one status to another. Illegal moves are rejected centrally here
// rather than with ad-hoc status checks at every call site.
func CanTransition(from, to JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
