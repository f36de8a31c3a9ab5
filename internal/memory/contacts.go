package memory

import (
	"context"

	"terapia/internal/core"
)

func (s *Store) ListContacts(_ context.Context, token, patientID string) ([]core.Contact, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Contact
	for _, c := range s.contacts {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) CreateContact(_ context.Context, token string, in core.ContactInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timestamp()
	c := contactFromInput(in)
	c.ID = s.newID()
	c.CreatedAt, c.UpdatedAt = now, now
	s.contacts = append(s.contacts, c)
	return nil
}

func (s *Store) UpdateContact(_ context.Context, token string, in core.ContactInput) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := in.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.contacts {
		if s.contacts[i].ID != in.ID {
			continue
		}
		c := contactFromInput(in)
		c.ID = in.ID
		c.CreatedAt = s.contacts[i].CreatedAt
		c.UpdatedAt = s.timestamp()
		s.contacts[i] = c
		return nil
	}
	return core.ErrNotFound
}

func (s *Store) DeleteContact(_ context.Context, token, patientID, contactID string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.contacts {
		if c.ID == contactID && c.PatientID == patientID {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func contactFromInput(in core.ContactInput) core.Contact {
	c := core.Contact{
		Name:         in.Name,
		CPF:          in.CPF,
		Relationship: in.Relationship,
		Email:        in.Email,
		PhonePrimary: in.PhonePrimary,
		PatientID:    in.PatientID,
	}
	if in.PhoneSecondary != "" {
		phone := in.PhoneSecondary
		c.PhoneSecondary = &phone
	}
	return c
}
