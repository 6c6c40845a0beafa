package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"txdash/internal/amqp"
	"txdash/internal/backend"
	"txdash/internal/cli"
	"txdash/internal/config"
	apphttp "txdash/internal/http"
	"txdash/internal/loader"
	applog "txdash/internal/log"
	"txdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	bootLogger := cli.SetupLogger(nil, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize data backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ld := loader.New(result.Source, logger)

	srv := apphttp.NewServer(":"+cfg.Port, ld, apphttp.Options{
		Logger:        logger,
		ViewCacheSize: cfg.ViewCacheSize,
		ViewCacheTTL:  cfg.ViewCacheTTL,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() && cfg.DataBackend == config.BackendSQLite {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
	} else if cfg.AMQPEnabled() {
		logger.Warn("AMQP_URL ignored: dataset reloads need the sqlite backend", "backend", cfg.DataBackend)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", applog.FieldError, err)
			}
		}
	})

	// The page serves "Loading..." until this returns.
	go func() {
		_ = ld.Load(ctx)
	}()

	if amqpClient != nil {
		reloads := worker.NewReloadWorker(ld)
		go func() {
			err := amqpClient.ConsumeDatasetUpdated(ctx, reloads.HandleDatasetUpdated)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.WithComponent(applog.ComponentAMQP).Error("Dataset update consumption stopped", applog.FieldError, err)
			}
		}()
		logger.Info("Listening for dataset updates", "queue", cfg.AMQPQueue)
	}

	logger.Info("Starting txdash server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
