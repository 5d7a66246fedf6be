package mocks

import (
	"context"
	"time"

	"github.com/knowledge-tools/filequeue/internal/dto"
	"github.com/stretchr/testify/mock"
)

type QueueEngineMock struct {
	mock.Mock
}

func (m *QueueEngineMock) Enqueue(ctx context.Context, req *dto.EnqueueDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, req)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *QueueEngineMock) Claim(ctx context.Context) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *QueueEngineMock) Complete(ctx context.Context, id uint, fileHash string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id, fileHash)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *QueueEngineMock) Fail(ctx context.Context, id uint, errorMessage string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id, errorMessage)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *QueueEngineMock) List(ctx context.Context, status string) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, status)

	jobs, _ := args.Get(0).([]dto.JobResponseDTO)
	return jobs, args.Error(1)
}

func (m *QueueEngineMock) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *QueueEngineMock) GetJobByPath(ctx context.Context, filePath string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, filePath)

	job, _ := args.Get(0).(*dto.JobResponseDTO)
	return job, args.Error(1)
}

func (m *QueueEngineMock) ReleaseStuck(ctx context.Context, staleFor time.Duration) (int, error) {
	args := m.Called(ctx, staleFor)
	return args.Int(0), args.Error(1)
}
