package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"terapia/internal/amqp"
	"terapia/internal/core"
	"terapia/internal/sheets"
	"terapia/internal/storage"
)

// JobRepository is the part of the export job store the worker drives.
type JobRepository interface {
	GetJob(ctx context.Context, id string) (core.ExportJob, error)
	PendingJobs(ctx context.Context, limit int) ([]core.ExportJob, error)
	IncrementAttempts(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id, sheetRef string) error
	MarkError(ctx context.Context, id string, cause error) error
}

// ExportWorker writes queued chart exports to the spreadsheet.
type ExportWorker struct {
	jobs      JobRepository
	exporter  sheets.ChartExporter
	batchSize int
	observe   func(status string)
}

func NewExportWorker(jobs JobRepository, exporter sheets.ChartExporter, batchSize int, observe func(status string)) *ExportWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	if observe == nil {
		observe = func(string) {}
	}
	return &ExportWorker{
		jobs:      jobs,
		exporter:  exporter,
		batchSize: batchSize,
		observe:   observe,
	}
}

// HandleExportMessage processes a single export notification from AMQP.
// An unknown job is acknowledged and dropped. A failed export is recorded on
// the job and acknowledged too; the pending sweep owns retries. Only store
// errors are returned, so the message is requeued.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportRequested) error {
	slog.InfoContext(ctx, "Processing export message", "job_id", msg.JobID)

	job, err := w.jobs.GetJob(ctx, msg.JobID)
	if errors.Is(err, storage.ErrJobNotFound) {
		slog.WarnContext(ctx, "Export job not found, dropping message", "job_id", msg.JobID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get export job: %w", err)
	}
	if job.Status == core.ExportDone {
		slog.DebugContext(ctx, "Export job already done", "job_id", job.ID, "sheet_ref", job.SheetRef)
		return nil
	}

	if job.Attempts >= storage.MaxExportAttempts {
		slog.WarnContext(ctx, "Export job exhausted its attempts, dropping message",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"last_error", job.LastError)
		return nil
	}

	if err := w.export(ctx, job); err != nil {
		slog.ErrorContext(ctx, "Export failed, left for the pending sweep", "job_id", job.ID, "error", err)
	}
	return nil
}

// ProcessPendingJobs exports jobs whose AMQP message was lost or that
// failed earlier and still have attempts left.
func (w *ExportWorker) ProcessPendingJobs(ctx context.Context) error {
	_, _, err := w.processBatch(ctx, w.batchSize)
	return err
}

// StartupCheck drains a larger batch of pending jobs when the worker starts.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	jobs, failed, err := w.processBatch(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	if jobs == 0 {
		slog.InfoContext(ctx, "No pending export jobs found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup export check completed",
		"total", jobs,
		"exported", jobs-failed,
		"errors", failed)
	return nil
}

// Run polls for pending jobs every interval until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPendingJobs(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to process pending export jobs", "error", err)
			}
		}
	}
}

func (w *ExportWorker) processBatch(ctx context.Context, limit int) (total, failed int, err error) {
	pending, err := w.jobs.PendingJobs(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending export jobs: %w", err)
	}
	if len(pending) > 0 {
		slog.InfoContext(ctx, "Processing pending export jobs", "count", len(pending))
	}

	for _, job := range pending {
		if ctx.Err() != nil {
			return total, failed, ctx.Err()
		}
		total++
		if err := w.export(ctx, job); err != nil {
			slog.ErrorContext(ctx, "Failed to export job", "job_id", job.ID, "error", err)
			failed++
		}
	}
	return total, failed, nil
}

func (w *ExportWorker) export(ctx context.Context, job core.ExportJob) error {
	if err := w.jobs.IncrementAttempts(ctx, job.ID); err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}

	ref, err := w.exporter.ExportChart(ctx, job)
	if err != nil {
		if markErr := w.jobs.MarkError(ctx, job.ID, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "job_id", job.ID, "error", markErr)
		}
		w.observe(string(core.ExportError))
		return fmt.Errorf("export chart: %w", err)
	}

	if err := w.jobs.MarkDone(ctx, job.ID, ref); err != nil {
		// The sheet was written; the next pass rewrites the same tab.
		slog.ErrorContext(ctx, "Failed to mark export done", "job_id", job.ID, "error", err)
	}
	w.observe(string(core.ExportDone))

	slog.InfoContext(ctx, "Successfully exported chart",
		"job_id", job.ID,
		"program", job.ProgramName,
		"sheet_ref", ref,
		"attempt", job.Attempts+1)
	return nil
}
