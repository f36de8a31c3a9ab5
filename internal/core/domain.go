package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-date format exchanged with the backend.
const DateLayout = "2006-01-02"

var (
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidSex          = errors.New("invalid sex")
	ErrInvalidBirthDate    = errors.New("invalid birth date")
	ErrInvalidImage        = errors.New("only image files are accepted")
	ErrImageTooLarge       = errors.New("image exceeds maximum size")
	ErrEmptyPatient        = errors.New("empty patient id")
	ErrNoInputs            = errors.New("at least one input is required")
	ErrNoSets              = errors.New("at least one set is required")
	ErrNoGoals             = errors.New("at least one goal is required")
	ErrInvalidInputType    = errors.New("invalid input type")
	ErrEmptyStatus         = errors.New("empty set status")
	ErrEmptyGoal           = errors.New("empty goal id")
	ErrNegativeValue       = errors.New("numeric values must be non-negative")
	ErrInvalidCPF          = errors.New("cpf must have between 11 and 14 characters")
	ErrInvalidRelationship = errors.New("invalid relationship")
	ErrInvalidEmail        = errors.New("invalid e-mail")
	ErrInvalidPhone        = errors.New("primary phone must have at least 8 characters")
	ErrNotFound            = errors.New("not found")
)

// ParseTimestamp reads the timestamps the backend emits: RFC 3339 or a bare
// calendar date.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, s)
}

type (
	// Organization is the practice a user belongs to.
	Organization struct {
		ID           string  `json:"id" yaml:"id"`
		Name         *string `json:"name" yaml:"name"`
		CNPJ         *string `json:"cnpj" yaml:"cnpj"`
		Phone        *string `json:"phone" yaml:"phone"`
		ContactEmail *string `json:"contact_email" yaml:"contact_email"`
		UserID       string  `json:"user_id" yaml:"user_id"`
	}

	// User is the authenticated practitioner.
	User struct {
		ID              string        `json:"id" yaml:"id"`
		Name            string        `json:"name" yaml:"name"`
		Email           string        `json:"email" yaml:"email"`
		EmailVerifiedAt *string       `json:"email_verified_at" yaml:"email_verified_at"`
		Role            string        `json:"role" yaml:"role"`
		CreatedAt       string        `json:"created_at" yaml:"created_at"`
		UpdatedAt       string        `json:"updated_at" yaml:"updated_at"`
		Organization    *Organization `json:"organization,omitempty" yaml:"organization"`
	}

	// ProgramSetStatus labels the state of a program set.
	ProgramSetStatus struct {
		ID   string `json:"id" yaml:"id"`
		Name string `json:"name" yaml:"name"`
	}
)

// OrganizationID returns the user's organization id, or "" when unset.
func (u User) OrganizationID() string {
	if u.Organization == nil {
		return ""
	}
	return u.Organization.ID
}

// ValidateStatusName checks the name of a new set status.
func ValidateStatusName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	return nil
}
