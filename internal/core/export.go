package core

import (
	"time"

	"terapia/internal/chart"
)

const (
	ExportPending ExportStatus = "pending"
	ExportDone    ExportStatus = "done"
	ExportError   ExportStatus = "error"
)

type (
	ExportStatus string

	// ExportRequest is a snapshot of a computed chart to be written to a
	// spreadsheet.
	ExportRequest struct {
		ProgramID   string
		ProgramName string
		Series      []chart.GoalSeries
	}

	ExportJob struct {
		ID          string
		ProgramID   string
		ProgramName string
		Series      []chart.GoalSeries
		Status      ExportStatus
		Attempts    int
		SheetRef    string
		LastError   string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}
)

// SheetTitle names the spreadsheet tab an export is written to.
func (j ExportJob) SheetTitle() string {
	short := j.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return j.ProgramName + " " + j.CreatedAt.UTC().Format("2006-01-02 15:04") + " " + short
}
