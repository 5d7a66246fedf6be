package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/knowledge-tools/filequeue/internal/config"
	"github.com/knowledge-tools/filequeue/internal/pool"
	"github.com/knowledge-tools/filequeue/internal/queue"
	"github.com/knowledge-tools/filequeue/internal/storage/postgres"
	"github.com/knowledge-tools/filequeue/internal/worker"
)

func main() {
	log.Println("Starting Worker...")

	ctx := context.Background()

	appCfg, err := config.LoadAppConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load app config:", err)
	}

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load db config:", err)
	}

	db, err := postgres.ConnectDB(dbCfg)
	if err != nil {
		log.Fatal("Connection failed:", err)
	}

	log.Println("SUCCESS! Database connected")

	repo := postgres.NewJobRepository(db)
	engine := queue.NewQueueEngine(repo, appCfg.MaxRetries)

	workerPool := pool.NewWorkerPool(appCfg.WorkerCount, engine, worker.FingerprintFile, appCfg.StuckAfter)

	workerPool.Start()
	log.Printf("Worker pool active (%d workers). Press Ctrl+C to stop.", appCfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	workerPool.Stop()
	log.Println("Shutdown complete.")
}
