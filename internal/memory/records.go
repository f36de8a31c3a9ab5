package memory

import (
	"context"

	"terapia/internal/core"
)

func (s *Store) ListRecords(_ context.Context, token, programID string) ([]core.Application, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Application
	for _, r := range s.records {
		if r.ProgramID == programID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) CreateRecord(_ context.Context, token string, in core.RecordInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	program, goal, ok := s.findGoal(in.ProgramID, in.GoalID)
	if !ok {
		return core.ErrNotFound
	}
	userID := s.user.ID
	s.records = append(s.records, core.Application{
		ID:          s.newID(),
		ProgramID:   program.ID,
		GoalID:      goal.ID,
		UserID:      &userID,
		CreatedAt:   s.timestamp(),
		GoalName:    goal.Name,
		ProgramName: program.Name,
		Inputs:      append(core.InputValues(nil), in.Inputs...),
	})
	return nil
}

func (s *Store) UpdateRecord(_ context.Context, token string, in core.RecordInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		r := &s.records[i]
		if r.ID != in.ID || r.ProgramID != in.ProgramID {
			continue
		}
		r.Inputs = append(core.InputValues(nil), in.Inputs...)
		now := s.timestamp()
		r.UpdatedAt = &now
		return nil
	}
	return core.ErrNotFound
}

func (s *Store) DeleteRecord(_ context.Context, token, programID, recordID string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.records {
		if r.ID == recordID && r.ProgramID == programID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) findGoal(programID, goalID string) (core.Program, core.Goal, bool) {
	for _, p := range s.programs {
		if p.ID != programID {
			continue
		}
		for _, g := range p.Goals() {
			if g.ID == goalID {
				return p, g, true
			}
		}
	}
	return core.Program{}, core.Goal{}, false
}
