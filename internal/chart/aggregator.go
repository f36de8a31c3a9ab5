package chart

import (
	"fmt"
	"time"
)

// DefaultExcludedFields are annotation fields that never enter a chart.
var DefaultExcludedFields = []string{"Observações", "IND"}

// createdAtLayouts are tried in order when bucketing a record.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Option configures an aggregation.
type Option func(*options)

type options struct {
	excluded map[string]struct{}
}

// WithExcludedFields replaces the default excluded field set.
func WithExcludedFields(names ...string) Option {
	return func(o *options) {
		o.excluded = toSet(names)
	}
}

func newOptions(opts []Option) options {
	o := options{excluded: toSet(DefaultExcludedFields)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// fieldSet is an insertion-ordered set of field names.
type fieldSet struct {
	names []string
	seen  map[string]struct{}
}

func (s *fieldSet) add(name string) {
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.names = append(s.names, name)
}

type goalAccumulator struct {
	name   string
	fields fieldSet
	rows   map[string]map[string]float64 // date -> field -> sum
}

// Aggregation holds the grouped sums of a set of records. Build it with
// Aggregate and turn it into series with Materialize.
type Aggregation struct {
	goals   []*goalAccumulator
	byName  map[string]*goalAccumulator
	skipped []SkippedRecord
}

// Goals returns the number of distinct goals seen.
func (a *Aggregation) Goals() int {
	if a == nil {
		return 0
	}
	return len(a.goals)
}

// Skipped returns the records left out because their timestamp was unreadable.
func (a *Aggregation) Skipped() []SkippedRecord {
	if a == nil {
		return nil
	}
	return a.skipped
}

// Aggregate groups records by goal, then by UTC day, summing every
// non-excluded input. Goals keep first-encounter order and fields keep
// first-registration order within their goal.
func Aggregate(records []Record, opts ...Option) *Aggregation {
	o := newOptions(opts)
	agg := &Aggregation{byName: make(map[string]*goalAccumulator)}

	for _, rec := range records {
		bucket, err := DateBucket(rec.CreatedAt)
		if err != nil {
			agg.skipped = append(agg.skipped, SkippedRecord{
				ID:        rec.ID,
				CreatedAt: rec.CreatedAt,
				Reason:    err.Error(),
			})
			continue
		}

		goal, ok := agg.byName[rec.GoalName]
		if !ok {
			goal = &goalAccumulator{
				name:   rec.GoalName,
				fields: fieldSet{seen: make(map[string]struct{})},
				rows:   make(map[string]map[string]float64),
			}
			agg.byName[rec.GoalName] = goal
			agg.goals = append(agg.goals, goal)
		}

		row, ok := goal.rows[bucket]
		if !ok {
			row = make(map[string]float64)
			goal.rows[bucket] = row
		}

		for _, in := range rec.Inputs {
			if _, excluded := o.excluded[in.Name]; excluded {
				continue
			}
			goal.fields.add(in.Name)
			row[in.Name] += CoerceNumeric(in.Value)
		}
	}

	return agg
}

// DateBucket truncates an ISO 8601 timestamp to its UTC calendar day.
func DateBucket(createdAt string) (string, error) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, createdAt); err == nil {
			return t.UTC().Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unparseable created_at %q", createdAt)
}
