package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"terapia/internal/chart"
)

// AnnotationField is the free-text note attached to a record.
const AnnotationField = "Observações"

type (
	InputValue struct {
		Name  string `json:"name" yaml:"name"`
		Value any    `json:"value" yaml:"value"`
	}

	// InputValues keeps record inputs in the order they were sent.
	InputValues []InputValue

	// Application is a progress record of a goal.
	Application struct {
		ID          string      `json:"id" yaml:"id"`
		ProgramID   string      `json:"program_id" yaml:"program_id"`
		GoalID      string      `json:"goal_id" yaml:"goal_id"`
		UserID      *string     `json:"user_id" yaml:"user_id"`
		CreatedAt   string      `json:"created_at" yaml:"created_at"`
		UpdatedAt   *string     `json:"updated_at" yaml:"updated_at"`
		GoalName    string      `json:"goal_name" yaml:"goal_name"`
		ProgramName string      `json:"program_name" yaml:"program_name"`
		Inputs      InputValues `json:"inputs" yaml:"inputs"`
	}

	RecordInput struct {
		ID        string       `json:"id,omitempty"`
		ProgramID string       `json:"program_id"`
		GoalID    string       `json:"goal_id,omitempty"`
		Inputs    []InputValue `json:"inputs"`
	}
)

// UnmarshalJSON accepts either an object or a list of {name, value} pairs.
func (v *InputValues) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = nil
		return nil
	}

	switch data[0] {
	case '[':
		var list []InputValue
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*v = list
		return nil
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil {
			return err
		}
		var out InputValues
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			name, ok := tok.(string)
			if !ok {
				return fmt.Errorf("unexpected input key %v", tok)
			}
			var value any
			if err := dec.Decode(&value); err != nil {
				return fmt.Errorf("decode input %q: %w", name, err)
			}
			out = append(out, InputValue{Name: name, Value: value})
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		*v = out
		return nil
	default:
		return fmt.Errorf("inputs must be an object or a list, got %q", data[:1])
	}
}

// UnmarshalYAML accepts either a mapping or a sequence of {name, value} pairs.
func (v *InputValues) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []InputValue
		if err := node.Decode(&list); err != nil {
			return err
		}
		*v = list
		return nil
	case yaml.MappingNode:
		out := make(InputValues, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var value any
			if err := node.Content[i+1].Decode(&value); err != nil {
				return fmt.Errorf("decode input %q: %w", node.Content[i].Value, err)
			}
			out = append(out, InputValue{Name: node.Content[i].Value, Value: value})
		}
		*v = out
		return nil
	default:
		return fmt.Errorf("inputs must be a mapping or a sequence (line %d)", node.Line)
	}
}

// Get returns the value of the named input.
func (v InputValues) Get(name string) (any, bool) {
	for _, in := range v {
		if in.Name == name {
			return in.Value, true
		}
	}
	return nil, false
}

// Annotation returns the free-text note of the record, if any.
func (v InputValues) Annotation() string {
	val, ok := v.Get(AnnotationField)
	if !ok {
		return ""
	}
	s, _ := val.(string)
	return s
}

// ChartRecord converts the application to the chart input.
func (a Application) ChartRecord() chart.Record {
	inputs := make([]chart.Input, 0, len(a.Inputs))
	for _, in := range a.Inputs {
		inputs = append(inputs, chart.Input{Name: in.Name, Value: in.Value})
	}
	return chart.Record{
		ID:        a.ID,
		GoalName:  a.GoalName,
		CreatedAt: a.CreatedAt,
		Inputs:    inputs,
	}
}

// ChartRecords converts a list of applications.
func ChartRecords(apps []Application) []chart.Record {
	records := make([]chart.Record, 0, len(apps))
	for _, a := range apps {
		records = append(records, a.ChartRecord())
	}
	return records
}

func (r RecordInput) Validate() error {
	if r.ID == "" && strings.TrimSpace(r.GoalID) == "" {
		return ErrEmptyGoal
	}
	for _, in := range r.Inputs {
		if strings.TrimSpace(in.Name) == "" {
			return ErrEmptyName
		}
		if chart.CoerceNumeric(in.Value) < 0 {
			return fmt.Errorf("%s: %w", in.Name, ErrNegativeValue)
		}
	}
	return nil
}
