package core

import (
	"sort"
	"strings"
)

const (
	InputNumber InputType = "number"
	InputText   InputType = "text"
	InputEmail  InputType = "email"
	InputDate   InputType = "date"
)

type (
	InputType string

	Goal struct {
		ID   string `json:"id" yaml:"id"`
		Name string `json:"name" yaml:"name"`
	}

	Set struct {
		ID     string `json:"id" yaml:"id"`
		Name   string `json:"name" yaml:"name"`
		Goals  []Goal `json:"goals" yaml:"goals"`
		Status string `json:"status" yaml:"status"`
	}

	// InputField is a measurement declared by a program.
	InputField struct {
		Name string    `json:"name" yaml:"name"`
		Type InputType `json:"type" yaml:"type"`
	}

	Program struct {
		ID        string       `json:"id" yaml:"id"`
		Name      string       `json:"name" yaml:"name"`
		PatientID string       `json:"patient_id" yaml:"patient_id"`
		Sets      []Set        `json:"sets" yaml:"sets"`
		Inputs    []InputField `json:"inputs" yaml:"inputs"`
		CreatedAt string       `json:"created_at" yaml:"created_at"`
		UpdatedAt string       `json:"updated_at" yaml:"updated_at"`
	}

	GoalInput struct {
		Name string `json:"name"`
	}

	SetInput struct {
		Name               string      `json:"name"`
		Goals              []GoalInput `json:"goals"`
		ProgramSetStatusID string      `json:"program_set_status_id"`
	}

	ProgramInput struct {
		ID        string       `json:"id,omitempty"`
		Name      string       `json:"name"`
		PatientID string       `json:"patient_id"`
		Inputs    []InputField `json:"inputs"`
		Sets      []SetInput   `json:"sets"`
	}
)

// Valid reports whether t is a known input type.
func (t InputType) Valid() bool {
	switch t {
	case InputNumber, InputText, InputEmail, InputDate:
		return true
	}
	return false
}

func (p ProgramInput) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(p.PatientID) == "" {
		return ErrEmptyPatient
	}
	if len(p.Inputs) == 0 {
		return ErrNoInputs
	}
	for _, in := range p.Inputs {
		if strings.TrimSpace(in.Name) == "" {
			return ErrEmptyName
		}
		if !in.Type.Valid() {
			return ErrInvalidInputType
		}
	}
	if len(p.Sets) == 0 {
		return ErrNoSets
	}
	for _, s := range p.Sets {
		if strings.TrimSpace(s.Name) == "" {
			return ErrEmptyName
		}
		if strings.TrimSpace(s.ProgramSetStatusID) == "" {
			return ErrEmptyStatus
		}
		if len(s.Goals) == 0 {
			return ErrNoGoals
		}
		for _, g := range s.Goals {
			if strings.TrimSpace(g.Name) == "" {
				return ErrEmptyName
			}
		}
	}
	return nil
}

// FindSetByGoal returns the set holding goalID.
func (p Program) FindSetByGoal(goalID string) (Set, bool) {
	for _, s := range p.Sets {
		for _, g := range s.Goals {
			if g.ID == goalID {
				return s, true
			}
		}
	}
	return Set{}, false
}

// Goals returns every goal of every set, in declaration order.
func (p Program) Goals() []Goal {
	var goals []Goal
	for _, s := range p.Sets {
		goals = append(goals, s.Goals...)
	}
	return goals
}

// InputType returns the declared type of the named input, text by default.
func (p Program) InputType(name string) InputType {
	for _, in := range p.Inputs {
		if in.Name == name {
			return in.Type
		}
	}
	return InputText
}

// SortProgramsByUpdated orders programs newest first. A positive limit
// truncates the result.
func SortProgramsByUpdated(programs []Program, limit int) []Program {
	out := make([]Program, len(programs))
	copy(out, programs)
	sort.SliceStable(out, func(i, j int) bool {
		ti, erri := ParseTimestamp(out[i].UpdatedAt)
		tj, errj := ParseTimestamp(out[j].UpdatedAt)
		if erri != nil || errj != nil {
			return erri == nil && errj != nil
		}
		return ti.After(tj)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
