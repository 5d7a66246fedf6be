package models

import (
	"time"

	"github.com/knowledge-tools/filequeue/internal/config"
	"gorm.io/datatypes"
)

// Job is one unit of queued file-processing work. FilePath is unique across
// all rows, so at most one job per file exists at any time; re-enqueue of a
// terminal job resets the existing row instead of inserting a new one.
//
// QueuedAt is the ordering key for claims (priority DESC, queued_at ASC).
// It starts equal to CreatedAt and is refreshed whenever a failed job is
// requeued, so a retried job goes behind same-priority peers. CreatedAt
// itself is never touched after insert.
type Job struct {
	ID           uint              `gorm:"primaryKey"`
	FilePath     string            `gorm:"type:varchar(1024);not null;uniqueIndex:uniq_jobs_file_path"`
	Status       config.JobStatus  `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_jobs_claim,priority:1"`
	Priority     int               `gorm:"not null;default:0;index:idx_jobs_claim,priority:2"`
	RetryCount   int               `gorm:"not null;default:0"`
	ErrorMessage string            `gorm:"type:text"`
	FileHash     string            `gorm:"type:text"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt    time.Time         `gorm:"autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime"`
	QueuedAt     time.Time         `gorm:"not null;index:idx_jobs_claim,priority:3"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
}
