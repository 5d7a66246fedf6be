package dto

import "time"

type EnqueueDTO struct {
	FilePath string         `json:"file_path" validate:"required"`
	Priority int            `json:"priority"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CompleteDTO and FailDTO identify a job by id or by file_path; exactly one
// is required, checked in the handler because validator cannot express the
// either-or across the two fields.
type CompleteDTO struct {
	ID       uint   `json:"id"`
	FilePath string `json:"file_path"`
	FileHash string `json:"file_hash,omitempty"`
}

type FailDTO struct {
	ID           uint   `json:"id"`
	FilePath     string `json:"file_path"`
	ErrorMessage string `json:"error_message" validate:"required"`
}

type JobResponseDTO struct {
	ID           uint           `json:"id"`
	FilePath     string         `json:"file_path"`
	Status       string         `json:"status"`
	Priority     int            `json:"priority"`
	RetryCount   int            `json:"retry_count"`
	ErrorMessage string         `json:"error_message,omitempty"`
	FileHash     string         `json:"file_hash,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	QueuedAt     time.Time      `json:"queued_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

type QueueListDTO struct {
	QueueList []JobResponseDTO `json:"queue_list"`
	Count     int              `json:"count"`
}
