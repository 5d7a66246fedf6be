package queue

import "errors"

// Sentinel errors shared between the store and the engine. Callers match
// them with errors.Is; the engine translates them into common.APIError for
// the HTTP layer.
var (
	// ErrDuplicateKey means an insert hit the unique index on file_path.
	ErrDuplicateKey = errors.New("file_path is already queued")

	// ErrNotFound means the referenced job id or file_path does not exist.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidTransition means a status change was attempted from a state
	// the state machine does not allow, e.g. completing a PENDING job.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmpty is the normal queue-drained signal from claim selection,
	// not a failure.
	ErrEmpty = errors.New("no pending jobs")
)
