// Package memory is a ChartExporter that keeps exported tables in process.
// The export worker falls back to it when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"terapia/internal/core"
	"terapia/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	tabs map[string][][]any
	ids  []string
}

var _ sheets.ChartExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{tabs: make(map[string][][]any)}
}

// ExportChart stores the chart table under the job's sheet title.
func (e *Exporter) ExportChart(_ context.Context, job core.ExportJob) (string, error) {
	title := job.SheetTitle()
	rows := sheets.Table(job.Series)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tabs[title]; !ok {
		e.ids = append(e.ids, title)
	}
	e.tabs[title] = rows
	return fmt.Sprintf("mem:%s!A1", title), nil
}

// Tab returns a copy of the rows written under title.
func (e *Exporter) Tab(title string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.tabs[title]
	if !ok {
		return nil, false
	}
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = append([]any(nil), r...)
	}
	return out, true
}

// Titles lists the tabs in the order they were first written.
func (e *Exporter) Titles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ids...)
}
