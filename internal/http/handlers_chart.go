package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"terapia/internal/chart"
	"terapia/internal/core"
	applog "terapia/internal/log"
)

type (
	chartSegment struct {
		Field string
		Value string
		Style template.CSS
	}

	chartColumn struct {
		Label    string
		Total    string
		Segments []chartSegment
	}

	legendEntry struct {
		Field  string
		Swatch template.CSS
	}

	goalChart struct {
		Title   string
		Legend  []legendEntry
		Columns []chartColumn
	}

	chartPage struct {
		Program   core.Program
		Charts    []goalChart
		LoadError bool
		CanExport bool
	}

	chartJSON struct {
		ProgramID   string       `json:"program_id"`
		ProgramName string       `json:"program_name"`
		Charts      []chart.Spec `json:"charts"`
		Skipped     int          `json:"skipped"`
	}
)

// errRecordsUnavailable wraps a failure to list the records of a chart whose
// program loaded fine.
var errRecordsUnavailable = errors.New("chart records unavailable")

func chartPath(patientID, programID string) string {
	return programsPath(patientID) + "/" + programID + "/chart"
}

// loadChart fetches the program and computes its series. A failure to list
// records wraps errRecordsUnavailable and still returns the program, so the
// page can render without data.
func (s *Server) loadChart(ctx context.Context, token, patientID, programID string) (core.Program, chart.Result, error) {
	var (
		program            core.Program
		records            []core.Application
		programErr, recErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		program, programErr = s.deps.Programs.GetProgram(ctx, token, patientID, programID)
		return nil
	})
	g.Go(func() error {
		records, recErr = s.deps.Records.ListRecords(ctx, token, programID)
		return nil
	})
	_ = g.Wait()

	if programErr != nil {
		return program, chart.Result{}, programErr
	}
	if recErr != nil {
		return program, chart.Result{}, fmt.Errorf("%w: %w", errRecordsUnavailable, recErr)
	}

	var opts []chart.Option
	if len(s.opts.ExcludedFields) > 0 {
		opts = append(opts, chart.WithExcludedFields(s.opts.ExcludedFields...))
	}
	result := chart.Build(core.ChartRecords(records), opts...)
	if n := len(result.Skipped); n > 0 {
		s.metrics.ChartRecordsSkipped(n)
		applog.FromContext(ctx).WarnContext(ctx, "Records left out of the chart",
			applog.FieldComponent, applog.ComponentChart,
			applog.FieldProgramID, programID,
			applog.FieldSkippedRecords, n,
			"first_reason", result.Skipped[0].Reason)
	}
	return program, result, nil
}

// stackedColumns scales every column against the tallest stack of the goal.
// Fields missing on a date count as 0.
func stackedColumns(g chart.GoalSeries) goalChart {
	colors := chart.Palette(g.FieldNames)
	gc := goalChart{Title: chart.TitlePrefix + g.GoalName}
	for _, c := range colors {
		gc.Legend = append(gc.Legend, legendEntry{Field: c.Field, Swatch: template.CSS("background-color: " + c.Color)})
	}

	var tallest float64
	for _, p := range g.Points {
		var total float64
		for _, f := range g.FieldNames {
			total += p.Value(f)
		}
		if total > tallest {
			tallest = total
		}
	}

	for _, p := range g.Points {
		col := chartColumn{Label: chart.FormatDate(p.Date)}
		var total float64
		for _, c := range colors {
			v := p.Value(c.Field)
			total += v
			height := 0.0
			if tallest > 0 {
				height = v / tallest * 100
			}
			col.Segments = append(col.Segments, chartSegment{
				Field: c.Field,
				Value: formatNumber(v),
				Style: template.CSS(fmt.Sprintf("height: %.2f%%; background-color: %s", height, c.Color)),
			})
		}
		col.Total = formatNumber(total)
		gc.Columns = append(gc.Columns, col)
	}
	return gc
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request, token string) {
	patientID, programID := r.PathValue("patientID"), r.PathValue("programID")
	program, result, err := s.loadChart(r.Context(), token, patientID, programID)
	if err != nil && (!errors.Is(err, errRecordsUnavailable) || isAuthError(err)) {
		s.fail(w, r, applog.OpRead, err)
		return
	}

	data := chartPage{Program: program, CanExport: s.deps.Exports != nil}
	if err != nil {
		data.LoadError = true
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to load chart records",
			applog.FieldComponent, applog.ComponentChart,
			applog.FieldProgramID, programID,
			applog.FieldError, err)
	}
	for _, g := range result.Series {
		data.Charts = append(data.Charts, stackedColumns(g))
	}
	s.render(w, r, http.StatusOK, "chart.html", page{Title: "Gráfico", Data: data})
}

func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request, token string) {
	patientID, programID := r.PathValue("patientID"), r.PathValue("programID")
	program, result, err := s.loadChart(r.Context(), token, patientID, programID)
	if err != nil {
		s.fail(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, chartJSON{
		ProgramID:   program.ID,
		ProgramName: program.Name,
		Charts:      chart.Specs(result.Series),
		Skipped:     len(result.Skipped),
	})
}

func (s *Server) handleChartExport(w http.ResponseWriter, r *http.Request, token string) {
	patientID, programID := r.PathValue("patientID"), r.PathValue("programID")
	if s.deps.Exports == nil {
		s.renderError(w, r, http.StatusServiceUnavailable, "A exportação para planilhas não está configurada.")
		return
	}

	program, result, err := s.loadChart(r.Context(), token, patientID, programID)
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}
	if len(result.Series) == 0 {
		redirectWithNotice(w, r, chartPath(patientID, programID), "Não há dados para exportar.")
		return
	}

	jobID, err := s.deps.Exports.RequestExport(r.Context(), core.ExportRequest{
		ProgramID:   program.ID,
		ProgramName: program.Name,
		Series:      result.Series,
	})
	if err != nil {
		s.fail(w, r, applog.OpExport, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Chart export requested",
		applog.NewFields().WithOperation(applog.OpExport).WithProgram(patientID, programID).WithJob(jobID).ToSlice()...)
	redirectWithNotice(w, r, chartPath(patientID, programID), "Exportação solicitada. A planilha será atualizada em instantes.")
}
