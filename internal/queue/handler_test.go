package queue

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-tools/filequeue/common"
	"github.com/knowledge-tools/filequeue/internal/dto"
	"github.com/knowledge-tools/filequeue/internal/mocks"
	"github.com/knowledge-tools/filequeue/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(engine *mocks.QueueEngineMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewQueueHandler(engine)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/queue/queue_list", handler.List)
	r.POST("/queue/enqueue", handler.Enqueue)
	r.POST("/queue/dequeue", handler.Dequeue)
	r.POST("/queue/complete", handler.Complete)
	r.POST("/queue/fail", handler.Fail)
	r.GET("/queue/jobs/:id", handler.Get)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQueueHandler_Enqueue(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.QueueEngineMock)
		expectedStatus int
	}{
		{
			name: "successful enqueue",
			body: `{"file_path":"/docs/a.txt","priority":2,"metadata":{"size":1024}}`,
			setupMock: func(m *mocks.QueueEngineMock) {
				m.On("Enqueue", mock.Anything, mock.MatchedBy(func(req *dto.EnqueueDTO) bool {
					return req.FilePath == "/docs/a.txt" && req.Priority == 2
				})).Return(&dto.JobResponseDTO{ID: 1, FilePath: "/docs/a.txt", Status: "PENDING", Priority: 2}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid request body JSON",
			body:           "{invalid json}",
			setupMock:      func(m *mocks.QueueEngineMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing file_path",
			body:           `{"priority":1}`,
			setupMock:      func(m *mocks.QueueEngineMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "already queued",
			body: `{"file_path":"/docs/a.txt"}`,
			setupMock: func(m *mocks.QueueEngineMock) {
				m.On("Enqueue", mock.Anything, mock.Anything).
					Return(nil, common.Errf(http.StatusConflict, "file is already queued"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "store failure",
			body: `{"file_path":"/docs/a.txt"}`,
			setupMock: func(m *mocks.QueueEngineMock) {
				m.On("Enqueue", mock.Anything, mock.Anything).
					Return(nil, common.Errf(http.StatusInternalServerError, "failed to enqueue job"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(mocks.QueueEngineMock)
			tt.setupMock(engine)
			r := setupRouter(engine)

			w := doRequest(r, http.MethodPost, "/queue/enqueue", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusCreated {
				var resp dto.JobResponseDTO
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "/docs/a.txt", resp.FilePath)
				assert.Equal(t, "PENDING", resp.Status)
			}
		})
	}
}

func TestQueueHandler_Dequeue(t *testing.T) {
	t.Run("returns the claimed job", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		engine.On("Claim", mock.Anything).
			Return(&dto.JobResponseDTO{ID: 3, FilePath: "/docs/b.txt", Status: "PROCESSING"}, nil)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/dequeue", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.JobResponseDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PROCESSING", resp.Status)
	})

	t.Run("empty queue is 204", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		engine.On("Claim", mock.Anything).Return(nil, nil)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/dequeue", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestQueueHandler_Complete(t *testing.T) {
	t.Run("complete by id", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		engine.On("Complete", mock.Anything, uint(3), "abc123").
			Return(&dto.JobResponseDTO{ID: 3, Status: "COMPLETED", FileHash: "abc123"}, nil)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/complete", `{"id":3,"file_hash":"abc123"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertNotCalled(t, "GetJobByPath", mock.Anything, mock.Anything)
	})

	t.Run("complete by file_path resolves the id first", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		engine.On("GetJobByPath", mock.Anything, "/docs/b.txt").
			Return(&dto.JobResponseDTO{ID: 3, FilePath: "/docs/b.txt", Status: "PROCESSING"}, nil)
		engine.On("Complete", mock.Anything, uint(3), "").
			Return(&dto.JobResponseDTO{ID: 3, Status: "COMPLETED"}, nil)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/complete", `{"file_path":"/docs/b.txt"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		engine.AssertExpectations(t)
	})

	t.Run("neither id nor file_path", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/complete", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		engine.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completing an unclaimed job is a conflict", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		engine.On("Complete", mock.Anything, uint(3), "").
			Return(nil, common.Errf(http.StatusConflict, "job is not processing"))
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/complete", `{"id":3}`)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestQueueHandler_Fail(t *testing.T) {
	t.Run("requeued job comes back pending", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		engine.On("Fail", mock.Anything, uint(3), "disk error").
			Return(&dto.JobResponseDTO{ID: 3, Status: "PENDING", RetryCount: 1, ErrorMessage: "disk error"}, nil)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/fail", `{"id":3,"error_message":"disk error"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.JobResponseDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "PENDING", resp.Status)
		assert.Equal(t, 1, resp.RetryCount)
	})

	t.Run("error_message is required", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodPost, "/queue/fail", `{"id":3}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		engine.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestQueueHandler_List(t *testing.T) {
	engine := new(mocks.QueueEngineMock)
	engine.On("List", mock.Anything, "PENDING").
		Return([]dto.JobResponseDTO{
			{ID: 1, FilePath: "/a.txt", Status: "PENDING"},
			{ID: 2, FilePath: "/b.txt", Status: "PENDING"},
		}, nil)
	r := setupRouter(engine)

	w := doRequest(r, http.MethodGet, "/queue/queue_list?status=PENDING", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.QueueListDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.QueueList, 2)
	assert.Equal(t, "/a.txt", resp.QueueList[0].FilePath)
}

func TestQueueHandler_Get(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodGet, "/queue/jobs/zero", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("found", func(t *testing.T) {
		engine := new(mocks.QueueEngineMock)
		engine.On("GetJobByID", mock.Anything, uint(3)).
			Return(&dto.JobResponseDTO{ID: 3, FilePath: "/docs/b.txt", Status: "COMPLETED"}, nil)
		r := setupRouter(engine)

		w := doRequest(r, http.MethodGet, "/queue/jobs/3", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
