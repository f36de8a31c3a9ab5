package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"terapia/internal/chart"
	"terapia/internal/core"

	_ "modernc.org/sqlite"
)

// ErrJobNotFound is returned when no export job has the requested id.
var ErrJobNotFound = errors.New("export job not found")

// MaxExportAttempts caps how often a failing job is handed back to the sweep.
const MaxExportAttempts = 5

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateJob stores a pending export of req and returns it.
func (r *SQLiteRepository) CreateJob(ctx context.Context, req core.ExportRequest) (core.ExportJob, error) {
	series := req.Series
	if series == nil {
		series = []chart.GoalSeries{}
	}
	payload, err := json.Marshal(series)
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("encode export payload: %w", err)
	}

	now := r.now().UTC()
	job := core.ExportJob{
		ID:          uuid.NewString(),
		ProgramID:   req.ProgramID,
		ProgramName: req.ProgramName,
		Series:      series,
		Status:      core.ExportPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO export_jobs (id, program_id, program_name, payload, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		job.ID, job.ProgramID, job.ProgramName, string(payload), string(job.Status),
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("insert export job: %w", err)
	}

	slog.InfoContext(ctx, "Export job saved to SQLite",
		"job_id", job.ID,
		"program_id", job.ProgramID,
		"goals", len(series))

	return job, nil
}

const jobColumns = `id, program_id, program_name, payload, status, attempts, sheet_ref, last_error, created_at, updated_at`

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (core.ExportJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM export_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExportJob{}, ErrJobNotFound
	}
	if err != nil {
		return core.ExportJob{}, fmt.Errorf("get export job %s: %w", id, err)
	}
	return job, nil
}

// PendingJobs returns up to limit jobs still to be written, oldest first:
// pending ones and failed ones with fewer than MaxExportAttempts attempts.
func (r *SQLiteRepository) PendingJobs(ctx context.Context, limit int) ([]core.ExportJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM export_jobs
		 WHERE status IN (?, ?) AND attempts < ?
		 ORDER BY created_at ASC LIMIT ?`,
		string(core.ExportPending), string(core.ExportError), MaxExportAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending export jobs: %w", err)
	}
	defer rows.Close()

	var jobs []core.ExportJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// IncrementAttempts bumps the attempt counter before a write is tried.
func (r *SQLiteRepository) IncrementAttempts(ctx context.Context, id string) error {
	return r.update(ctx, id, `attempts = attempts + 1`)
}

func (r *SQLiteRepository) MarkDone(ctx context.Context, id, sheetRef string) error {
	return r.update(ctx, id, `status = ?, sheet_ref = ?, last_error = ''`, string(core.ExportDone), sheetRef)
}

func (r *SQLiteRepository) MarkError(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.update(ctx, id, `status = ?, last_error = ?`, string(core.ExportError), msg)
}

func (r *SQLiteRepository) update(ctx context.Context, id, set string, args ...any) error {
	args = append(args, r.now().UTC().Format(timeLayout), id)
	res, err := r.db.ExecContext(ctx, `UPDATE export_jobs SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update export job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update export job %s: %w", id, err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (core.ExportJob, error) {
	var (
		job                  core.ExportJob
		payload, status      string
		createdAt, updatedAt string
	)
	if err := s.Scan(&job.ID, &job.ProgramID, &job.ProgramName, &payload, &status,
		&job.Attempts, &job.SheetRef, &job.LastError, &createdAt, &updatedAt); err != nil {
		return core.ExportJob{}, err
	}
	if err := json.Unmarshal([]byte(payload), &job.Series); err != nil {
		return core.ExportJob{}, fmt.Errorf("decode payload of %s: %w", job.ID, err)
	}
	job.Status = core.ExportStatus(status)
	job.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	job.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return job, nil
}
