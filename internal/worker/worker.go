package worker

import (
	"context"
	"log"
	"time"

	"github.com/knowledge-tools/filequeue/internal/dto"
	"github.com/knowledge-tools/filequeue/internal/queue"
)

// ProcessFunc does the actual work for a claimed job and returns the file's
// content fingerprint. What "processing" means is the caller's business; the
// worker only drives the claim/complete/fail cycle.
type ProcessFunc func(ctx context.Context, job *dto.JobResponseDTO) (fileHash string, err error)

// Worker polls the queue engine for work. The engine's Claim never blocks,
// so an empty queue is handled with an exponential poll backoff that resets
// as soon as a job is found.
type Worker struct {
	ID      int
	engine  queue.QueueEngineInterface
	process ProcessFunc
	quit    chan struct{}
}

func NewWorker(id int, engine queue.QueueEngineInterface, process ProcessFunc) *Worker {
	return &Worker{ID: id, engine: engine, process: process, quit: make(chan struct{})}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		currentDelay := 1 * time.Second
		maxDelay := 60 * time.Second

		for {
			job, err := w.engine.Claim(ctx)
			if err != nil {
				log.Printf("[worker %d] claim failed: %v", w.ID, err)
			}

			if job != nil {
				w.handle(ctx, job)
				currentDelay = 1 * time.Second

				// More work may be waiting; skip the idle delay.
				select {
				case <-w.quit:
					return
				case <-ctx.Done():
					return
				default:
					continue
				}
			}

			currentDelay = min(currentDelay*2, maxDelay)

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Worker) handle(ctx context.Context, job *dto.JobResponseDTO) {
	fileHash, err := w.process(ctx, job)
	if err != nil {
		log.Printf("[worker %d] job %d (%s) failed: %v", w.ID, job.ID, job.FilePath, err)
		if _, failErr := w.engine.Fail(ctx, job.ID, err.Error()); failErr != nil {
			log.Printf("[worker %d] could not report failure for job %d: %v", w.ID, job.ID, failErr)
		}
		return
	}

	if _, err := w.engine.Complete(ctx, job.ID, fileHash); err != nil {
		log.Printf("[worker %d] could not complete job %d: %v", w.ID, job.ID, err)
	}
}

func (w *Worker) Stop() { close(w.quit) }
