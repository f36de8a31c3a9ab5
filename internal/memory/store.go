// Package memory is an in-process backend seeded from a YAML fixture. It is
// meant for local development and tests and accepts any non-empty token.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"terapia/internal/core"
	"terapia/internal/ports"
)

// Seed is the fixture layout.
type Seed struct {
	User     core.User               `yaml:"user"`
	Statuses []core.ProgramSetStatus `yaml:"statuses"`
	Patients []core.Patient          `yaml:"patients"`
	Programs []core.Program          `yaml:"programs"`
	Records  []core.Application      `yaml:"records"`
	Contacts []core.Contact          `yaml:"contacts"`
}

type Store struct {
	mu       sync.Mutex
	user     core.User
	statuses []core.ProgramSetStatus
	patients []core.Patient
	programs []core.Program
	records  []core.Application
	contacts []core.Contact
	now      func() time.Time
	newID    func() string
}

var (
	_ ports.PatientStore = (*Store)(nil)
	_ ports.ProgramStore = (*Store)(nil)
	_ ports.RecordStore  = (*Store)(nil)
	_ ports.ContactStore = (*Store)(nil)
	_ ports.StatusStore  = (*Store)(nil)
	_ ports.UserReader   = (*Store)(nil)
)

// DefaultSeed is used when no fixture file exists.
func DefaultSeed() Seed {
	return Seed{
		User: core.User{ID: "local", Name: "Profissional", Email: "local@terapia.dev", Role: "admin",
			Organization: &core.Organization{ID: "org-local", UserID: "local"}},
		Statuses: []core.ProgramSetStatus{
			{ID: "st-andamento", Name: "Em andamento"},
			{ID: "st-concluido", Name: "Concluído"},
		},
	}
}

func New(seed Seed) *Store {
	return &Store{
		user:     seed.User,
		statuses: append([]core.ProgramSetStatus(nil), seed.Statuses...),
		patients: append([]core.Patient(nil), seed.Patients...),
		programs: append([]core.Program(nil), seed.Programs...),
		records:  append([]core.Application(nil), seed.Records...),
		contacts: append([]core.Contact(nil), seed.Contacts...),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// NewFromFile loads the YAML fixture at path. A missing file yields the
// default seed.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(DefaultSeed()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(seed), nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func checkToken(token string) error {
	if token == "" {
		return ports.ErrNoToken
	}
	return nil
}

func (s *Store) CurrentUser(_ context.Context, token string) (core.User, error) {
	if err := checkToken(token); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, nil
}

func (s *Store) ListStatuses(_ context.Context, token string) ([]core.ProgramSetStatus, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ProgramSetStatus(nil), s.statuses...), nil
}

func (s *Store) CreateStatus(_ context.Context, token, name string) (core.ProgramSetStatus, error) {
	if err := checkToken(token); err != nil {
		return core.ProgramSetStatus{}, err
	}
	if err := core.ValidateStatusName(name); err != nil {
		return core.ProgramSetStatus{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := core.ProgramSetStatus{ID: s.newID(), Name: name}
	s.statuses = append(s.statuses, st)
	return st, nil
}

func (s *Store) DeleteStatus(_ context.Context, token, statusID string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.statuses {
		if st.ID == statusID {
			s.statuses = append(s.statuses[:i], s.statuses[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) statusName(id string) string {
	for _, st := range s.statuses {
		if st.ID == id {
			return st.Name
		}
	}
	return id
}
