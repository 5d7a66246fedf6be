package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/knowledge-tools/filequeue/internal/config"
	"github.com/knowledge-tools/filequeue/internal/queue"
	"github.com/knowledge-tools/filequeue/internal/storage/postgres"
	"github.com/knowledge-tools/filequeue/middleware"
)

func main() {
	log.Println("Starting API...")

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

	if err := postgres.RunMigrations(dbCfg.DSN()); err != nil {
		log.Fatal("Migrations failed:", err)
	}
	log.Println("SUCCESS! Database connected and migrated")

	repo := postgres.NewJobRepository(db)
	engine := queue.NewQueueEngine(repo, appCfg.MaxRetries)
	handler := queue.NewQueueHandler(engine)

	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	q := router.Group("/queue")
	{
		q.GET("/queue_list", handler.List)
		q.POST("/enqueue", handler.Enqueue)
		q.POST("/dequeue", handler.Dequeue)
		q.POST("/complete", handler.Complete)
		q.POST("/fail", handler.Fail)
		q.GET("/jobs/:id", handler.Get)
	}

	srv := &http.Server{
		Addr:    appCfg.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Printf("Listening on %s", appCfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Shutdown failed:", err)
	}
	log.Println("Shutdown complete.")
}
