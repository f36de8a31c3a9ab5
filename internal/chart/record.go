// Package chart turns raw progress records into per-goal, per-date stacked
// series ready for rendering.
//
// All functions are pure: they own no state, perform no I/O and return the
// same output for the same input.
package chart

type (
	// Input is a single named measurement of a record.
	Input struct {
		Name  string
		Value any
	}

	// Record is a progress record as received from the backend.
	Record struct {
		ID        string
		GoalName  string
		CreatedAt string // ISO 8601 timestamp
		Inputs    []Input
	}

	// Point is one date row of a goal series. Values is sparse: it only
	// holds the fields observed on that date.
	Point struct {
		Date   string             `json:"date"` // YYYY-MM-DD
		Values map[string]float64 `json:"values"`
	}

	// GoalSeries is the materialized series of a single goal.
	GoalSeries struct {
		GoalName   string   `json:"goal_name"`
		FieldNames []string `json:"field_names"`
		Points     []Point  `json:"points"`
	}

	// SkippedRecord reports a record left out of the aggregation.
	SkippedRecord struct {
		ID        string
		CreatedAt string
		Reason    string
	}

	// Result is the output of Build.
	Result struct {
		Series  []GoalSeries
		Skipped []SkippedRecord
	}
)

// Value returns the sum recorded for field on this date, 0 when absent.
func (p Point) Value(field string) float64 {
	return p.Values[field]
}
