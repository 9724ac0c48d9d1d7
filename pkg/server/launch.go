package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/cubestudio/dataset-admin/pkg/config"
	"github.com/cubestudio/dataset-admin/pkg/metrics"
	"github.com/cubestudio/dataset-admin/pkg/objectstore"
	"github.com/cubestudio/dataset-admin/pkg/service"
	"github.com/cubestudio/dataset-admin/pkg/store/sql"
	"github.com/cubestudio/dataset-admin/pkg/tasks"
)

// Launch wires the store, storage backend and task queue into the HTTP
// server and serves until ctx is cancelled.
func Launch(ctx context.Context, logger *logrus.Logger, cfg *config.Config) (err error) {
	store, err := sql.NewSQLStore(logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	backend, err := objectstore.New(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to create %q storage backend: %w", cfg.Store.Type, err)
	}

	if backend == nil {
		logger.Warn("No storage backend configured, downloads are limited to recorded paths")
	}

	checks := map[string]HealthCheck{"database": store.Ping}

	var queue tasks.Queue

	if cfg.Tasks.RedisAddr != "" {
		redisQueue, err := tasks.NewRedisQueue(ctx, cfg.Tasks)
		if err != nil {
			return err
		}
		defer redisQueue.Close()

		queue = redisQueue
		checks["queue"] = redisQueue.Ping
	} else {
		logger.Warn("No task queue configured, backups are unavailable")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(registry)

	datasetService := service.NewDatasetService(logger, cfg, service.Dependencies{
		Store:   store,
		Backend: backend,
		Queue:   queue,
		Metrics: appMetrics,
	})

	app, err := NewApp(Options{
		Config:       cfg,
		Logger:       logger,
		Service:      datasetService,
		Metrics:      appMetrics,
		Gatherer:     registry,
		HealthChecks: checks,
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			logger.Errorf("Failed to gracefully shutdown dataset admin server: %v", err)
		}
	}()

	logger.Infof("Dataset admin server listening on %s", cfg.Address)

	if err := app.Listen(cfg.Address); err != nil {
		return fmt.Errorf("failed to start dataset admin server: %w", err)
	}

	return nil
}
