package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/knowledge-tools/filequeue/internal/config"
	"github.com/knowledge-tools/filequeue/internal/models"
	"github.com/knowledge-tools/filequeue/internal/queue"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobRepository is the gorm-backed job store. Every status-changing update
// carries a WHERE clause on the expected current status, so a row that has
// moved on in the meantime is simply not matched; RowsAffected == 0 is then
// disambiguated into queue.ErrNotFound or queue.ErrInvalidTransition.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ queue.JobStoreInterface = (*JobRepository)(nil)

// Insert creates a new PENDING job row. The unique index on file_path is the
// uniqueness authority; a violation surfaces as queue.ErrDuplicateKey.
func (r *JobRepository) Insert(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("insert job %q: %w", job.FilePath, queue.ErrDuplicateKey)
		}
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get job %d: %w", id, queue.ErrNotFound)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (r *JobRepository) GetByPath(ctx context.Context, filePath string) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "file_path = ?", filePath).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get job %q: %w", filePath, queue.ErrNotFound)
		}
		return nil, fmt.Errorf("get job by path: %w", err)
	}
	return &job, nil
}

// SelectNextPending returns the single best-ranked PENDING job: highest
// priority first, then oldest ordering key, id as the final tie-break.
func (r *JobRepository) SelectNextPending(ctx context.Context) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where("status = ?", config.StatusPending).
		Order("priority DESC").
		Order("queued_at ASC").
		Order("id ASC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, queue.ErrEmpty
		}
		return nil, fmt.Errorf("select next pending: %w", err)
	}
	return &job, nil
}

// ClaimNext selects the next PENDING job and marks it PROCESSING. The mark
// is a compare-and-swap: the UPDATE only matches while the row is still
// PENDING, so of two concurrent claimers exactly one wins and the loser
// moves on to the next candidate. Returns queue.ErrEmpty when drained.
func (r *JobRepository) ClaimNext(ctx context.Context) (*models.Job, error) {
	for {
		candidate, err := r.SelectNextPending(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		res := r.db.WithContext(ctx).Model(&models.Job{}).
			Where("id = ? AND status = ?", candidate.ID, config.StatusPending).
			Updates(map[string]any{
				"status":     config.StatusProcessing,
				"started_at": now,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("claim job %d: %w", candidate.ID, res.Error)
		}
		if res.RowsAffected == 1 {
			return r.Get(ctx, candidate.ID)
		}
		// Lost the race for this candidate; try the next one.
	}
}

// MarkCompleted transitions a PROCESSING job to COMPLETED and sets
// completed_at. fileHash, when non-empty, is stored as the content
// fingerprint.
func (r *JobRepository) MarkCompleted(ctx context.Context, id uint, fileHash string) error {
	fields := map[string]any{
		"status":       config.StatusCompleted,
		"completed_at": time.Now(),
	}
	if fileHash != "" {
		fields["file_hash"] = fileHash
	}
	return r.transition(ctx, id, config.StatusProcessing, fields)
}

// Requeue returns a PROCESSING job to PENDING after a retryable failure:
// retry_count goes up by one (atomically, via gorm.Expr), started_at is
// cleared and queued_at is refreshed so the job re-enters the queue behind
// same-priority peers.
func (r *JobRepository) Requeue(ctx context.Context, id uint, errMsg string) error {
	return r.transition(ctx, id, config.StatusProcessing, map[string]any{
		"status":        config.StatusPending,
		"retry_count":   gorm.Expr("retry_count + ?", 1),
		"error_message": errMsg,
		"started_at":    nil,
		"queued_at":     time.Now(),
	})
}

// MarkFailed transitions a PROCESSING job to terminal FAILED once its retry
// budget is exhausted.
func (r *JobRepository) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	return r.transition(ctx, id, config.StatusProcessing, map[string]any{
		"status":        config.StatusFailed,
		"error_message": errMsg,
		"completed_at":  time.Now(),
	})
}

// Release returns a PROCESSING job to PENDING without touching retry_count.
// The janitor uses it to recover jobs abandoned by a crashed worker.
func (r *JobRepository) Release(ctx context.Context, id uint) error {
	return r.transition(ctx, id, config.StatusProcessing, map[string]any{
		"status":     config.StatusPending,
		"started_at": nil,
		"queued_at":  time.Now(),
	})
}

// ResetForRequeue reactivates a terminal (COMPLETED or FAILED) job as a
// fresh PENDING one: retry budget, timestamps and error are wiped, priority
// and metadata take the newly submitted values. The status guard means a
// concurrent enqueue that already reactivated the row makes this call fail
// with queue.ErrInvalidTransition instead of double-resetting.
func (r *JobRepository) ResetForRequeue(ctx context.Context, id uint, priority int, metadata datatypes.JSONMap) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status IN ?", id, []config.JobStatus{config.StatusCompleted, config.StatusFailed}).
		Updates(map[string]any{
			"status":        config.StatusPending,
			"priority":      priority,
			"retry_count":   0,
			"error_message": "",
			"metadata":      metadata,
			"started_at":    nil,
			"completed_at":  nil,
			"queued_at":     time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("reset job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// ListAll returns jobs in claim order. An empty status returns everything;
// reads are diagnostic and take no locks.
func (r *JobRepository) ListAll(ctx context.Context, status config.JobStatus) ([]models.Job, error) {
	q := r.db.WithContext(ctx).
		Order("priority DESC").
		Order("queued_at ASC").
		Order("id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var jobs []models.Job
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListStuck returns PROCESSING jobs whose started_at is older than staleFor.
func (r *JobRepository) ListStuck(ctx context.Context, staleFor time.Duration) ([]models.Job, error) {
	cutoff := time.Now().Add(-staleFor)

	var jobs []models.Job
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", config.StatusProcessing, cutoff).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list stuck jobs: %w", err)
	}
	return jobs, nil
}

// transition applies fields to the job iff it is currently in from.
func (r *JobRepository) transition(ctx context.Context, id uint, from config.JobStatus, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// explainMiss distinguishes "row is gone" from "row is in the wrong status"
// after a guarded update matched nothing.
func (r *JobRepository) explainMiss(ctx context.Context, id uint) error {
	if _, err := r.Get(ctx, id); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return fmt.Errorf("job %d: %w", id, queue.ErrNotFound)
		}
		return err
	}
	return fmt.Errorf("job %d: %w", id, queue.ErrInvalidTransition)
}
