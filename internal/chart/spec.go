package chart

// Spec is the rendering contract of one goal chart.
type Spec struct {
	Title  string           `json:"title"`
	Rows   []map[string]any `json:"rows"`
	Series []SeriesColor    `json:"series"`
}

// TitlePrefix is prepended to the goal name in chart titles.
const TitlePrefix = "Meta: "

// DateKey is the row key holding the date bucket.
const DateKey = "date"

// Spec builds the rendering contract of the series. Rows carry the date
// bucket under DateKey plus the observed numeric fields. A field literally
// named DateKey is keyed "field:date" in rows and series so it cannot
// overwrite the date label.
func (g GoalSeries) Spec() Spec {
	keys := rowKeys(g.FieldNames)

	rows := make([]map[string]any, 0, len(g.Points))
	for _, p := range g.Points {
		row := make(map[string]any, len(p.Values)+1)
		for f, v := range p.Values {
			row[keyFor(keys, f)] = v
		}
		row[DateKey] = p.Date
		rows = append(rows, row)
	}

	series := Palette(g.FieldNames)
	for i := range series {
		series[i].Field = keyFor(keys, series[i].Field)
	}
	return Spec{
		Title:  TitlePrefix + g.GoalName,
		Rows:   rows,
		Series: series,
	}
}

// rowKeys maps a field named DateKey to a key no other field uses.
func rowKeys(fieldNames []string) map[string]string {
	taken := make(map[string]bool, len(fieldNames))
	for _, f := range fieldNames {
		taken[f] = true
	}
	if !taken[DateKey] {
		return nil
	}
	key := "field:" + DateKey
	for taken[key] {
		key = "_" + key
	}
	return map[string]string{DateKey: key}
}

func keyFor(keys map[string]string, field string) string {
	if k, ok := keys[field]; ok {
		return k
	}
	return field
}

// Specs builds the contract of every series.
func Specs(series []GoalSeries) []Spec {
	specs := make([]Spec, 0, len(series))
	for _, g := range series {
		specs = append(specs, g.Spec())
	}
	return specs
}
