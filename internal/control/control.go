// Package control wires configuration, storage, the backend client, and the
// lifecycle manager into a runnable controller, and hosts the replay worker
// for operations that exhausted their retries.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	sethretry "github.com/sethvargo/go-retry"

	"github.com/vietddude/jobctl/internal/backoff"
	"github.com/vietddude/jobctl/internal/core/config"
	"github.com/vietddude/jobctl/internal/generator"
	"github.com/vietddude/jobctl/internal/health"
	"github.com/vietddude/jobctl/internal/infra/backend"
	redisclient "github.com/vietddude/jobctl/internal/infra/redis"
	"github.com/vietddude/jobctl/internal/infra/storage"
	"github.com/vietddude/jobctl/internal/infra/storage/memory"
	"github.com/vietddude/jobctl/internal/infra/storage/postgres"
	"github.com/vietddude/jobctl/internal/lifecycle"
	"github.com/vietddude/jobctl/internal/retry"
)

// Config holds the application configuration.
type Config struct {
	Port     int
	Backend  config.BackendConfig
	Retry    config.RetryConfig
	Replay   config.ReplayConfig
	Redis    redisclient.Config
	Database postgres.Config
}

// Controller is the main application struct. It fronts the lifecycle manager
// with ledger bookkeeping and failed-operation replay.
type Controller struct {
	cfg     Config
	manager *lifecycle.Manager
	client  backend.Client
	repo    storage.JobRepository

	queue        *redisclient.FailedOpQueue // nil without Redis
	healthMon    *health.Monitor
	healthServer *health.Server

	db          *postgres.DB
	redisClient *redisclient.Client

	log    *slog.Logger
	cancel context.CancelFunc
}

// NewController creates a Controller with all dependencies initialized.
func NewController(cfg Config) (*Controller, error) {
	log := slog.Default().With("component", "control")

	// 1. Ledger storage
	var repo storage.JobRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		repo = postgres.NewJobRepo(db)
		slog.Info("Using PostgreSQL ledger")
	} else {
		repo = memory.NewJobRepo()
		slog.Info("Using in-memory ledger")
	}

	// 2. Replay queue (optional)
	var redisConn *redisclient.Client
	var queue *redisclient.FailedOpQueue
	if cfg.Redis.URL != "" {
		var err error
		redisConn, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		queue = redisclient.NewFailedOpQueue(redisConn)
		slog.Info("Replay queue enabled")
	}

	// 3. Backend client and lifecycle manager
	client := backend.NewHTTPClient(cfg.Backend.URL, cfg.Backend.Timeout)

	var strategy backoff.Strategy
	if cfg.Retry.Jitter {
		strategy = backoff.NewExponentialJitter(cfg.Retry.BaseDelay, cfg.Retry.MaxDelay)
	} else {
		strategy = backoff.NewExponential(cfg.Retry.BaseDelay, cfg.Retry.MaxDelay)
	}
	manager := lifecycle.NewManager(generator.DefaultRegistry(), client, slog.Default(),
		lifecycle.WithRetryConfig(retry.Config{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			Backoff:    strategy,
		}))

	// 4. Health monitor
	mon := health.NewMonitor()
	mon.Register("backend", true, client.Ping)
	if db != nil {
		mon.Register("ledger", false, db.PingContext)
	}

	return &Controller{
		cfg:          cfg,
		manager:      manager,
		client:       client,
		repo:         repo,
		queue:        queue,
		healthMon:    mon,
		healthServer: health.NewServer(mon, cfg.Port),
		db:           db,
		redisClient:  redisConn,
		log:          log,
	}, nil
}

// Run brings the controller up: waits for the backend to be reachable,
// then runs the health server and the replay worker until the context is
// cancelled or Shutdown is called.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.waitForBackend(ctx); err != nil {
		return fmt.Errorf("backend not reachable: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	go func() {
		c.log.Info("Health server listening", "port", c.cfg.Port)
		if err := c.healthServer.Start(); err != nil && runCtx.Err() == nil {
			c.log.Error("Health server failed", "error", err)
		}
	}()

	if c.queue != nil {
		go c.runReplayLoop(runCtx)
	}

	return nil
}

// Shutdown stops the background workers and closes connections gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}

	if err := c.healthServer.Stop(ctx); err != nil {
		c.log.Warn("Health server shutdown", "error", err)
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.log.Warn("Redis close", "error", err)
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.log.Warn("DB close", "error", err)
		}
	}

	c.log.Info("Controller stopped")
	return nil
}

// waitForBackend blocks until the backend answers a ping, backing off
// exponentially. A backend that is briefly down at boot must not kill the
// process.
func (c *Controller) waitForBackend(ctx context.Context) error {
	b := sethretry.WithMaxRetries(5, sethretry.NewExponential(time.Second))
	return sethretry.Do(ctx, b, func(ctx context.Context) error {
		if err := c.client.Ping(ctx); err != nil {
			c.log.Warn("Backend not ready, waiting", "error", err)
			return sethretry.RetryableError(err)
		}
		return nil
	})
}
