package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"terapia/internal/amqp"
	"terapia/internal/backend"
	"terapia/internal/cli"
	apphttp "terapia/internal/http"
	applog "terapia/internal/log"
	"terapia/internal/metrics"
	"terapia/internal/services"
	"terapia/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(applog.ComponentApp, cfg.LogLevel)

	m := metrics.New()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	backendCfg.Observer = m.ObserveUpstream

	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	b := result.Backend

	deps := apphttp.Deps{
		Patients:    b,
		Programs:    b,
		Records:     b,
		Contacts:    b,
		Statuses:    b,
		Users:       b,
		ReadyChecks: map[string]func(context.Context) error{},
	}

	var (
		exports *services.ExportService
		repo    *storage.SQLiteRepository
	)
	if cfg.ExportEnabled() {
		repo = cli.InitSQLite(logger, cfg.SQLiteDBPath)
		deps.ReadyChecks["sqlite"] = repo.Ping

		// A nil *amqp.Client must not reach the Publisher interface.
		var publisher services.Publisher
		if cfg.AMQPURL != "" {
			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Warn("AMQP unavailable, exports will wait for the worker sweep", applog.FieldError, err)
			} else {
				publisher = client
			}
		}
		exports = services.NewExportService(repo, publisher, m.ExportEnqueued)
		deps.Exports = exports
		logger.Info("Chart export enabled", "sqlite_path", cfg.SQLiteDBPath, "amqp", publisher != nil)
	} else {
		logger.Info("Chart export disabled - no SQLITE_DB_PATH provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{
		SessionCookie:  cfg.SessionCookie,
		SigninURL:      cfg.SigninURL,
		CSRFKey:        []byte(cfg.CSRFKey),
		CookieSecure:   cfg.CookieSecure,
		ExcludedFields: cfg.ExcludedFields(),
		Logger:         logger,
		Metrics:        m,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if exports != nil {
			if err := exports.Close(); err != nil {
				logger.Error("Failed to close export service", applog.FieldError, err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err)
			}
		}
	})

	logger.Info("Starting terapia server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
