package mocks

import (
	"context"
	"time"

	"github.com/knowledge-tools/filequeue/internal/config"
	"github.com/knowledge-tools/filequeue/internal/models"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

type JobStoreMock struct {
	mock.Mock
}

func (m *JobStoreMock) Insert(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobStoreMock) Get(ctx context.Context, id uint) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobStoreMock) GetByPath(ctx context.Context, filePath string) (*models.Job, error) {
	args := m.Called(ctx, filePath)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobStoreMock) SelectNextPending(ctx context.Context) (*models.Job, error) {
	args := m.Called(ctx)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobStoreMock) ClaimNext(ctx context.Context) (*models.Job, error) {
	args := m.Called(ctx)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobStoreMock) MarkCompleted(ctx context.Context, id uint, fileHash string) error {
	args := m.Called(ctx, id, fileHash)
	return args.Error(0)
}

func (m *JobStoreMock) Requeue(ctx context.Context, id uint, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *JobStoreMock) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *JobStoreMock) Release(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobStoreMock) ResetForRequeue(ctx context.Context, id uint, priority int, metadata datatypes.JSONMap) error {
	args := m.Called(ctx, id, priority, metadata)
	return args.Error(0)
}

func (m *JobStoreMock) ListAll(ctx context.Context, status config.JobStatus) ([]models.Job, error) {
	args := m.Called(ctx, status)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobStoreMock) ListStuck(ctx context.Context, staleFor time.Duration) ([]models.Job, error) {
	args := m.Called(ctx, staleFor)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}
