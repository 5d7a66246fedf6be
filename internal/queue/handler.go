package queue

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-tools/filequeue/common"
	"github.com/knowledge-tools/filequeue/internal/dto"
	"github.com/knowledge-tools/filequeue/middleware"
)

type QueueHandler struct {
	engine QueueEngineInterface
}

func NewQueueHandler(e QueueEngineInterface) *QueueHandler {
	return &QueueHandler{engine: e}
}

var _ QueueHandlerInterface = (*QueueHandler)(nil)

// List handles GET /queue/queue_list. It accepts an optional ?status=
// filter and returns the jobs in claim order together with their count.
func (h *QueueHandler) List(c *gin.Context) {
	jobs, err := h.engine.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.QueueListDTO{QueueList: jobs, Count: len(jobs)})
}

// Enqueue handles POST /queue/enqueue. It binds and validates the request
// body, delegates to the engine, and returns 201 with the created (or
// reset) job record. An already-active file_path yields 409.
func (h *QueueHandler) Enqueue(c *gin.Context) {
	var req dto.EnqueueDTO
	if !middleware.Bind(c, &req) {
		return
	}

	job, err := h.engine.Enqueue(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// Dequeue handles POST /queue/dequeue: it claims the next pending job.
// 204 signals a drained queue, which callers treat as "poll again later".
func (h *QueueHandler) Dequeue(c *gin.Context) {
	job, err := h.engine.Claim(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if job == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Complete handles POST /queue/complete. The job may be identified by id
// or by file_path; an optional file_hash is stored as the content
// fingerprint computed during processing.
func (h *QueueHandler) Complete(c *gin.Context) {
	var req dto.CompleteDTO
	if !middleware.Bind(c, &req) {
		return
	}

	id, ok := h.resolveID(c, req.ID, req.FilePath)
	if !ok {
		return
	}

	job, err := h.engine.Complete(c.Request.Context(), id, req.FileHash)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Fail handles POST /queue/fail. Depending on the retry budget the
// returned record is PENDING (requeued) or terminally FAILED.
func (h *QueueHandler) Fail(c *gin.Context) {
	var req dto.FailDTO
	if !middleware.Bind(c, &req) {
		return
	}

	id, ok := h.resolveID(c, req.ID, req.FilePath)
	if !ok {
		return
	}

	job, err := h.engine.Fail(c.Request.Context(), id, req.ErrorMessage)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Get handles GET /queue/jobs/:id.
func (h *QueueHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid ID"))
		return
	}

	job, err := h.engine.GetJobByID(c.Request.Context(), uint(id))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// resolveID turns an id-or-file_path reference into a job id. Exactly one
// of the two must be provided.
func (h *QueueHandler) resolveID(c *gin.Context, id uint, filePath string) (uint, bool) {
	if id > 0 {
		return id, true
	}
	if filePath == "" {
		c.Error(common.Errf(http.StatusBadRequest, "either id or file_path is required"))
		return 0, false
	}

	job, err := h.engine.GetJobByPath(c.Request.Context(), filePath)
	if err != nil {
		c.Error(err)
		return 0, false
	}
	return job.ID, true
}
