package memory

import (
	"context"

	"terapia/internal/core"
)

func (s *Store) ListPatients(_ context.Context, token string) ([]core.Patient, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Patient(nil), s.patients...), nil
}

func (s *Store) GetPatient(_ context.Context, token, patientID string) (core.Patient, error) {
	if err := checkToken(token); err != nil {
		return core.Patient{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID == patientID {
			return p, nil
		}
	}
	return core.Patient{}, core.ErrNotFound
}

func (s *Store) CreatePatient(_ context.Context, token string, in core.PatientInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timestamp()
	p := core.Patient{
		ID:             s.newID(),
		Name:           in.Name,
		Sex:            in.Sex,
		BirthDate:      in.BirthDate,
		OrganizationID: in.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Image != nil {
		p.Image = imageDataURL(in.Image)
	}
	s.patients = append(s.patients, p)
	return nil
}

func (s *Store) UpdatePatient(_ context.Context, token string, in core.PatientInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.patients {
		p := &s.patients[i]
		if p.ID != in.ID {
			continue
		}
		p.Name = in.Name
		p.Sex = in.Sex
		p.BirthDate = in.BirthDate
		if in.OrganizationID != "" {
			p.OrganizationID = in.OrganizationID
		}
		if in.Image != nil {
			p.Image = imageDataURL(in.Image)
		}
		p.UpdatedAt = s.timestamp()
		return nil
	}
	return core.ErrNotFound
}

func imageDataURL(img *core.ImagePayload) string {
	return "data:image/" + img.Extension + ";base64," + img.Base64
}
