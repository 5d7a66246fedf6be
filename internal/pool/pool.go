package pool

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/knowledge-tools/filequeue/internal/queue"
	"github.com/knowledge-tools/filequeue/internal/worker"
)

// WorkerPool runs a fixed set of workers against the queue engine. When
// stuckAfter is positive a janitor goroutine periodically releases jobs
// left in PROCESSING longer than that, so work abandoned by a crashed
// worker becomes claimable again.
type WorkerPool struct {
	workers    []*worker.Worker
	engine     queue.QueueEngineInterface
	stuckAfter time.Duration
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewWorkerPool(count int, engine queue.QueueEngineInterface, process worker.ProcessFunc, stuckAfter time.Duration) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{engine: engine, stuckAfter: stuckAfter, ctx: ctx, cancel: cancel}

	for i := 1; i <= count; i++ {
		p.workers = append(p.workers, worker.NewWorker(i, engine, process))
	}
	return p
}

func (p *WorkerPool) Start() {
	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	if p.stuckAfter > 0 {
		p.wg.Add(1)
		go p.janitor()
	}
}

func (p *WorkerPool) janitor() {
	defer p.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			released, err := p.engine.ReleaseStuck(p.ctx, p.stuckAfter)
			if err != nil {
				log.Printf("[pool] janitor: %v", err)
			}
			if released > 0 {
				log.Printf("[pool] released %d stuck job(s)", released)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) Stop() {
	p.cancel()
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
}
