package queue

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-tools/filequeue/internal/config"
	"github.com/knowledge-tools/filequeue/internal/dto"
	"github.com/knowledge-tools/filequeue/internal/models"
	"gorm.io/datatypes"
)

// JobStoreInterface defines the contract for durable job storage. All
// status-changing operations are conditional on the job's expected current
// status and fail with ErrInvalidTransition when the row has moved on, so
// concurrent callers can never double-apply a transition.
type JobStoreInterface interface {
	// Insert creates a PENDING job; ErrDuplicateKey if file_path exists.
	Insert(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id uint) (*models.Job, error)
	GetByPath(ctx context.Context, filePath string) (*models.Job, error)

	// SelectNextPending returns the best-ranked PENDING job
	// (priority DESC, queued_at ASC, id ASC) or ErrEmpty.
	SelectNextPending(ctx context.Context) (*models.Job, error)

	// ClaimNext atomically selects and marks one PENDING job as PROCESSING.
	// Under concurrent callers each job is handed out at most once.
	// Returns ErrEmpty when the queue is drained.
	ClaimNext(ctx context.Context) (*models.Job, error)

	// MarkCompleted moves a PROCESSING job to COMPLETED, recording fileHash
	// when non-empty.
	MarkCompleted(ctx context.Context, id uint, fileHash string) error
	// Requeue moves a PROCESSING job back to PENDING, incrementing
	// retry_count, storing errMsg and refreshing the ordering key.
	Requeue(ctx context.Context, id uint, errMsg string) error
	// MarkFailed moves a PROCESSING job to terminal FAILED.
	MarkFailed(ctx context.Context, id uint, errMsg string) error
	// Release returns a PROCESSING job to PENDING without charging the
	// retry budget; used by the janitor for stuck jobs.
	Release(ctx context.Context, id uint) error
	// ResetForRequeue reactivates a terminal job as a fresh PENDING one.
	ResetForRequeue(ctx context.Context, id uint, priority int, metadata datatypes.JSONMap) error

	// ListAll returns jobs in claim order, optionally filtered by status
	// (empty status means all).
	ListAll(ctx context.Context, status config.JobStatus) ([]models.Job, error)
	ListStuck(ctx context.Context, staleFor time.Duration) ([]models.Job, error)
}

// QueueEngineInterface defines the contract for the queue business logic.
type QueueEngineInterface interface {
	Enqueue(ctx context.Context, req *dto.EnqueueDTO) (*dto.JobResponseDTO, error)
	// Claim returns (nil, nil) when no PENDING job exists.
	Claim(ctx context.Context) (*dto.JobResponseDTO, error)
	Complete(ctx context.Context, id uint, fileHash string) (*dto.JobResponseDTO, error)
	Fail(ctx context.Context, id uint, errorMessage string) (*dto.JobResponseDTO, error)
	List(ctx context.Context, status string) ([]dto.JobResponseDTO, error)
	GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
	GetJobByPath(ctx context.Context, filePath string) (*dto.JobResponseDTO, error)
	ReleaseStuck(ctx context.Context, staleFor time.Duration) (int, error)
}

// QueueHandlerInterface defines the contract for HTTP request handlers.
type QueueHandlerInterface interface {
	List(c *gin.Context)
	Enqueue(c *gin.Context)
	Dequeue(c *gin.Context)
	Complete(c *gin.Context)
	Fail(c *gin.Context)
	Get(c *gin.Context)
}
