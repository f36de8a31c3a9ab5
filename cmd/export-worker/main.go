package main

import (
	"context"
	"errors"
	"os"
	"time"

	"terapia/internal/amqp"
	"terapia/internal/cli"
	"terapia/internal/config"
	applog "terapia/internal/log"
	"terapia/internal/metrics"
	"terapia/internal/sheets"
	gsheet "terapia/internal/sheets/google"
	memsheet "terapia/internal/sheets/memory"
	"terapia/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting export-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)
	logger = cli.SetupLogger(applog.ComponentWorker, cfg.LogLevel)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var exporter sheets.ChartExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background(), cfg.GoogleSpreadsheetID)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = memsheet.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, exports are kept in memory only")
	}

	m := metrics.New()
	w := worker.NewExportWorker(repo, exporter, cfg.ExportBatchSize, m.ExportProcessed)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup export check...")
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup export check", applog.FieldError, err)
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on the periodic sweep", applog.FieldError, err)
		} else {
			defer client.Close()
			go func() {
				if err := client.ConsumeExportRequested(ctx, w.HandleExportMessage); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", applog.FieldError, err)
				}
			}()
		}
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	go w.Run(ctx, cfg.ExportInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
