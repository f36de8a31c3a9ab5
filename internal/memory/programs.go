package memory

import (
	"context"

	"terapia/internal/core"
)

func (s *Store) ListPrograms(_ context.Context, token, patientID string) ([]core.Program, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Program
	for _, p := range s.programs {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) GetProgram(_ context.Context, token, patientID, programID string) (core.Program, error) {
	if err := checkToken(token); err != nil {
		return core.Program{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.programs {
		if p.ID == programID && p.PatientID == patientID {
			return p, nil
		}
	}
	return core.Program{}, core.ErrNotFound
}

func (s *Store) CreateProgram(_ context.Context, token string, in core.ProgramInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timestamp()
	s.programs = append(s.programs, core.Program{
		ID:        s.newID(),
		Name:      in.Name,
		PatientID: in.PatientID,
		Inputs:    append([]core.InputField(nil), in.Inputs...),
		Sets:      s.buildSets(in.Sets, nil),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return nil
}

func (s *Store) UpdateProgram(_ context.Context, token string, in core.ProgramInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.programs {
		p := &s.programs[i]
		if p.ID != in.ID {
			continue
		}
		p.Name = in.Name
		p.Inputs = append([]core.InputField(nil), in.Inputs...)
		p.Sets = s.buildSets(in.Sets, p.Sets)
		p.UpdatedAt = s.timestamp()
		return nil
	}
	return core.ErrNotFound
}

func (s *Store) DeleteProgram(_ context.Context, token, patientID, programID string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.programs {
		if p.ID == programID && p.PatientID == patientID {
			s.programs = append(s.programs[:i], s.programs[i+1:]...)
			kept := s.records[:0]
			for _, r := range s.records {
				if r.ProgramID != programID {
					kept = append(kept, r)
				}
			}
			s.records = kept
			return nil
		}
	}
	return core.ErrNotFound
}

// buildSets assigns ids to the submitted sets, reusing the goal ids of
// previous sets whose goal names match so existing records keep pointing at
// them.
func (s *Store) buildSets(in []core.SetInput, previous []core.Set) []core.Set {
	known := make(map[string]string)
	for _, set := range previous {
		for _, g := range set.Goals {
			known[set.Name+"\x00"+g.Name] = g.ID
		}
	}

	sets := make([]core.Set, 0, len(in))
	for _, si := range in {
		set := core.Set{ID: s.newID(), Name: si.Name, Status: s.statusName(si.ProgramSetStatusID)}
		for _, gi := range si.Goals {
			id, ok := known[si.Name+"\x00"+gi.Name]
			if !ok {
				id = s.newID()
			}
			set.Goals = append(set.Goals, core.Goal{ID: id, Name: gi.Name})
		}
		sets = append(sets, set)
	}
	return sets
}
