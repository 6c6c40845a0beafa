// Command txdash-snapshot copies the REST backend's customers and
// transactions into the local SQLite database and announces each new
// version over AMQP.
package main

import (
	"context"
	"os"
	"time"

	"txdash/internal/amqp"
	"txdash/internal/backend"
	"txdash/internal/cli"
	applog "txdash/internal/log"
	"txdash/internal/services"
	"txdash/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger(nil, applog.ComponentSnapshot)
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg, applog.ComponentSnapshot)

	upstream, err := backend.NewFactory(logger).CreateBackend(context.Background(), backend.Config{
		Type:    backend.RESTBackend,
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
	})
	if err != nil {
		logger.Error("Failed to initialize upstream REST backend", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var publisher services.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	} else {
		logger.Info("AMQP disabled: snapshots will not be announced")
	}

	procConfig := services.DefaultSnapshotProcessorConfig()
	procConfig.SourceName = backend.RESTBackend.String()
	if cfg.SnapshotInterval > 0 {
		procConfig.PollInterval = cfg.SnapshotInterval
	}
	processor := services.NewSnapshotProcessor(upstream.Source, repo, publisher, procConfig)

	if cfg.SnapshotInterval == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.BackendTimeout+30*time.Second)
		defer cancel()
		version, err := processor.RunOnce(ctx)
		if err != nil {
			logger.Error("Snapshot failed", applog.FieldError, err)
			cancel()
			os.Exit(1)
		}
		if info, ok, err := repo.GetSnapshotInfo(ctx); err == nil && ok {
			logger.Info("Snapshot complete", applog.FieldVersion, version, applog.FieldSource, info.Source, "fetched_at", info.FetchedAt)
		}
		return
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Warn("Snapshot processor stop error", applog.FieldError, err)
		}
	})
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start snapshot processor", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Taking snapshots", "interval", cfg.SnapshotInterval, "db", cfg.SQLiteDBPath)

	cli.WaitForShutdown(ctx, done)
}
