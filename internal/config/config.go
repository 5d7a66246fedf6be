package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// DefaultMaxRetries is the retry budget applied when QUEUE_MAX_RETRIES is
// not set: a job may be requeued this many times before it is marked FAILED.
const DefaultMaxRetries = 3

type AppConfig struct {
	ListenAddr  string `env:"LISTEN_ADDR,default=:8000"`
	MaxRetries  int    `env:"QUEUE_MAX_RETRIES,default=3"`
	WorkerCount int    `env:"WORKER_COUNT,default=4"`
	// StuckAfter is how long a job may sit in PROCESSING before the janitor
	// releases it back to PENDING. Zero disables the janitor.
	StuckAfter time.Duration `env:"QUEUE_STUCK_AFTER,default=0"`
}

func LoadAppConfigFromEnv(ctx context.Context) (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("QUEUE_MAX_RETRIES must be non-negative, got %d", cfg.MaxRetries)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("WORKER_COUNT must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.StuckAfter < 0 {
		return nil, fmt.Errorf("QUEUE_STUCK_AFTER must not be negative, got %s", cfg.StuckAfter)
	}

	return &cfg, nil
}
