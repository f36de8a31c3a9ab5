package sheets

import (
	"context"

	"terapia/internal/core"
)

// ChartExporter writes the chart snapshot of an export job to a
// spreadsheet and returns a reference to what it wrote.
type ChartExporter interface {
	ExportChart(ctx context.Context, job core.ExportJob) (sheetRef string, err error)
}
