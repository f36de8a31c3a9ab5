package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"terapia/internal/core"
	"terapia/internal/ports"
)

// JobStore persists export jobs.
type JobStore interface {
	CreateJob(ctx context.Context, req core.ExportRequest) (core.ExportJob, error)
	Close() error
}

// Publisher announces a stored export job to the worker.
type Publisher interface {
	PublishExportRequested(ctx context.Context, jobID string) error
	Close() error
}

// EnqueueObserver is told whether each stored job was also published.
type EnqueueObserver func(published bool)

// ExportService orchestrates chart exports across SQLite and AMQP
type ExportService struct {
	store     JobStore
	publisher Publisher
	observe   EnqueueObserver
}

var _ ports.ExportRequester = (*ExportService)(nil)

// NewExportService wires the store and an optional publisher. Without a
// publisher jobs stay pending until the worker's periodic sweep.
func NewExportService(store JobStore, publisher Publisher, observe EnqueueObserver) *ExportService {
	return &ExportService{store: store, publisher: publisher, observe: observe}
}

// RequestExport saves the snapshot locally and publishes an export message.
// A failed publish is logged and the job is left pending.
func (s *ExportService) RequestExport(ctx context.Context, req core.ExportRequest) (string, error) {
	if s.store == nil {
		return "", errors.New("export storage is not configured")
	}

	job, err := s.store.CreateJob(ctx, req)
	if err != nil {
		return "", fmt.Errorf("save export job: %w", err)
	}

	published := false
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, export left for the periodic sweep",
			"job_id", job.ID)
	} else if err := s.publisher.PublishExportRequested(ctx, job.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export request",
			"job_id", job.ID,
			"error", err)
	} else {
		published = true
	}

	if s.observe != nil {
		s.observe(published)
	}
	return job.ID, nil
}

// Close closes both storage and AMQP connections
func (s *ExportService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
