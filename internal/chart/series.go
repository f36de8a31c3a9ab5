package chart

import "sort"

// Materialize converts an aggregation into one series per goal, in
// first-encounter order, with points sorted ascending by date.
func Materialize(a *Aggregation) []GoalSeries {
	series := make([]GoalSeries, 0, a.Goals())
	if a == nil {
		return series
	}

	for _, goal := range a.goals {
		dates := make([]string, 0, len(goal.rows))
		for d := range goal.rows {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		points := make([]Point, 0, len(dates))
		for _, d := range dates {
			values := make(map[string]float64, len(goal.rows[d]))
			for f, v := range goal.rows[d] {
				values[f] = v
			}
			points = append(points, Point{Date: d, Values: values})
		}

		fields := make([]string, len(goal.fields.names))
		copy(fields, goal.fields.names)

		series = append(series, GoalSeries{
			GoalName:   goal.name,
			FieldNames: fields,
			Points:     points,
		})
	}

	return series
}

// Build aggregates and materializes records in one call.
func Build(records []Record, opts ...Option) Result {
	agg := Aggregate(records, opts...)
	return Result{
		Series:  Materialize(agg),
		Skipped: agg.Skipped(),
	}
}
