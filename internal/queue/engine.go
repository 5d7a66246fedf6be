package queue

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/knowledge-tools/filequeue/common"
	"github.com/knowledge-tools/filequeue/internal/config"
	"github.com/knowledge-tools/filequeue/internal/dto"
	"github.com/knowledge-tools/filequeue/internal/models"
	"gorm.io/datatypes"
)

// QueueEngine owns the job state machine and the priority ordering policy.
// All coordination between concurrent workers happens through the store;
// the engine itself keeps no mutable state besides configuration.
type QueueEngine struct {
	store      JobStoreInterface
	maxRetries int
}

func NewQueueEngine(store JobStoreInterface, maxRetries int) *QueueEngine {
	if maxRetries < 0 {
		maxRetries = config.DefaultMaxRetries
	}
	return &QueueEngine{store: store, maxRetries: maxRetries}
}

var _ QueueEngineInterface = (*QueueEngine)(nil)

// Enqueue registers a file for processing. A path already active (PENDING or
// PROCESSING) is rejected so the same file is never worked on twice; a path
// whose prior job is terminal is reset in place to a fresh PENDING job,
// which supports reprocessing without accumulating duplicate rows.
func (e *QueueEngine) Enqueue(ctx context.Context, req *dto.EnqueueDTO) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	existing, err := e.store.GetByPath(ctx, req.FilePath)
	switch {
	case err == nil:
		if !existing.Status.Terminal() {
			return nil, common.NewAPIError(
				http.StatusConflict,
				"file is already queued",
				map[string]any{
					"file_path": req.FilePath,
					"status":    string(existing.Status),
				},
			)
		}

		if err := e.store.ResetForRequeue(ctx, existing.ID, req.Priority, datatypes.JSONMap(req.Metadata)); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				// Lost a race with another enqueue that already reactivated it.
				return nil, common.Errf(http.StatusConflict, "file is already queued")
			}
			return nil, e.storeError(err, "failed to re-enqueue job")
		}
		return e.GetJobByID(ctx, existing.ID)

	case errors.Is(err, ErrNotFound):
		now := time.Now()
		job := models.Job{
			FilePath: req.FilePath,
			Status:   config.StatusPending,
			Priority: req.Priority,
			Metadata: datatypes.JSONMap(req.Metadata),
			QueuedAt: now,
		}
		if err := e.store.Insert(ctx, &job); err != nil {
			if errors.Is(err, ErrDuplicateKey) {
				return nil, common.Errf(http.StatusConflict, "file is already queued")
			}
			return nil, e.storeError(err, "failed to enqueue job")
		}
		return toDTO(&job), nil

	default:
		return nil, e.storeError(err, "failed to look up job")
	}
}

// Claim hands out the next PENDING job, transitioning it to PROCESSING.
// A drained queue is not an error: Claim returns (nil, nil) immediately and
// any wait-for-work backoff is the caller's concern.
func (e *QueueEngine) Claim(ctx context.Context) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	job, err := e.store.ClaimNext(ctx)
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			return nil, nil
		}
		return nil, e.storeError(err, "failed to claim job")
	}
	return toDTO(job), nil
}

// Complete marks a PROCESSING job as COMPLETED. fileHash, when non-empty,
// is recorded as the file's content fingerprint.
func (e *QueueEngine) Complete(ctx context.Context, id uint, fileHash string) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if err := e.store.MarkCompleted(ctx, id, fileHash); err != nil {
		return nil, e.transitionError(err, "failed to complete job")
	}
	return e.GetJobByID(ctx, id)
}

// Fail reports a processing failure. The retry policy decides the outcome:
// within budget the job returns to PENDING with an incremented retry count
// and a refreshed ordering key, otherwise it is marked terminally FAILED.
func (e *QueueEngine) Fail(ctx context.Context, id uint, errorMessage string) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	job, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, e.transitionError(err, "failed to fail job")
	}
	if job.Status != config.StatusProcessing {
		return nil, common.NewAPIError(
			http.StatusConflict,
			"job is not processing",
			map[string]any{"id": id, "status": string(job.Status)},
		)
	}

	// retry_count only changes on the PROCESSING -> PENDING edge, and only
	// the single claimer of this job reaches here, so the read above is not
	// racy with respect to the decision.
	switch Decide(job.RetryCount, e.maxRetries) {
	case DecisionRetry:
		err = e.store.Requeue(ctx, id, errorMessage)
	case DecisionExhausted:
		err = e.store.MarkFailed(ctx, id, errorMessage)
	}
	if err != nil {
		return nil, e.transitionError(err, "failed to fail job")
	}
	return e.GetJobByID(ctx, id)
}

// List is a read-only projection of the queue in claim order; it never
// mutates state.
func (e *QueueEngine) List(ctx context.Context, status string) ([]dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	filter := config.JobStatus(status)
	if status != "" && !filter.Valid() {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid status filter",
			map[string]any{"provided": status, "allowed": config.AllStatuses},
		)
	}

	jobs, err := e.store.ListAll(ctx, filter)
	if err != nil {
		return nil, e.storeError(err, "failed to list jobs")
	}

	dtos := make([]dto.JobResponseDTO, len(jobs))
	for i := range jobs {
		dtos[i] = *toDTO(&jobs[i])
	}
	return dtos, nil
}

func (e *QueueEngine) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	job, err := e.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.Errf(http.StatusNotFound, "job not found")
		}
		return nil, e.storeError(err, "failed to get job")
	}
	return toDTO(job), nil
}

func (e *QueueEngine) GetJobByPath(ctx context.Context, filePath string) (*dto.JobResponseDTO, error) {
	job, err := e.store.GetByPath(ctx, filePath)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.Errf(http.StatusNotFound, "job not found")
		}
		return nil, e.storeError(err, "failed to get job")
	}
	return toDTO(job), nil
}

// ReleaseStuck returns jobs left in PROCESSING longer than staleFor back to
// PENDING without charging their retry budget. Jobs a concurrent caller has
// already moved on are skipped.
func (e *QueueEngine) ReleaseStuck(ctx context.Context, staleFor time.Duration) (int, error) {
	stuck, err := e.store.ListStuck(ctx, staleFor)
	if err != nil {
		return 0, e.storeError(err, "failed to list stuck jobs")
	}

	released := 0
	for _, job := range stuck {
		if err := e.store.Release(ctx, job.ID); err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
				continue
			}
			return released, e.storeError(err, "failed to release stuck job")
		}
		released++
	}
	return released, nil
}

func (e *QueueEngine) transitionError(err error, fallback string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.Errf(http.StatusNotFound, "job not found")
	case errors.Is(err, ErrInvalidTransition):
		return common.Errf(http.StatusConflict, "job is not processing")
	default:
		return e.storeError(err, fallback)
	}
}

func (e *QueueEngine) storeError(err error, fallback string) error {
	switch {
	case errors.Is(err, context.Canceled):
		return common.Errf(http.StatusRequestTimeout, "request was canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return common.Errf(http.StatusRequestTimeout, "request timeout")
	default:
		return common.Errf(http.StatusInternalServerError, "%s", fallback)
	}
}

func toDTO(job *models.Job) *dto.JobResponseDTO {
	return &dto.JobResponseDTO{
		ID:           job.ID,
		FilePath:     job.FilePath,
		Status:       string(job.Status),
		Priority:     job.Priority,
		RetryCount:   job.RetryCount,
		ErrorMessage: job.ErrorMessage,
		FileHash:     job.FileHash,
		Metadata:     map[string]any(job.Metadata),
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		QueuedAt:     job.QueuedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}
}
