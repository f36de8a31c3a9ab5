package core

import (
	"encoding/base64"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxImageSize is the largest accepted patient picture, in bytes.
const MaxImageSize = 2 * 1024 * 1024

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type (
	Sex string

	Patient struct {
		ID             string `json:"id" yaml:"id"`
		Name           string `json:"name" yaml:"name"`
		Sex            Sex    `json:"sex" yaml:"sex"`
		BirthDate      string `json:"birth_date" yaml:"birth_date"`
		OrganizationID string `json:"organization_id" yaml:"organization_id"`
		Image          string `json:"image" yaml:"image"`
		CreatedAt      string `json:"created_at" yaml:"created_at"`
		UpdatedAt      string `json:"updated_at" yaml:"updated_at"`
	}

	// ImagePayload is a picture upload as the backend expects it.
	ImagePayload struct {
		Base64    string `json:"base64"`
		Extension string `json:"extension"`
	}

	PatientInput struct {
		ID             string        `json:"id,omitempty"`
		Name           string        `json:"name"`
		Sex            Sex           `json:"sex"`
		BirthDate      string        `json:"birth_date"`
		OrganizationID string        `json:"organization_id,omitempty"`
		Image          *ImagePayload `json:"image"`
	}
)

// Label returns the Portuguese label of the sex.
func (s Sex) Label() string {
	switch s {
	case SexMale:
		return "Masculino"
	case SexFemale:
		return "Feminino"
	default:
		return string(s)
	}
}

// Validate checks the input and normalizes BirthDate to yyyy-MM-dd.
func (p *PatientInput) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		return ErrInvalidSex
	}
	t, err := ParseTimestamp(p.BirthDate)
	if err != nil {
		return ErrInvalidBirthDate
	}
	p.BirthDate = t.Format(DateLayout)
	return nil
}

// NewImagePayload encodes an uploaded picture. contentType must be image/*.
func NewImagePayload(data []byte, contentType, filename string) (*ImagePayload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidImage
	}
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		ext = strings.TrimPrefix(contentType, "image/")
	}
	return &ImagePayload{
		Base64:    base64.StdEncoding.EncodeToString(data),
		Extension: ext,
	}, nil
}

// Age returns the whole years between birthDate and now, or -1 when the
// birth date cannot be read.
func (p Patient) Age(now time.Time) int {
	birth, err := ParseTimestamp(p.BirthDate)
	if err != nil {
		return -1
	}
	return Age(birth, now)
}

// Age returns the whole years elapsed from birth to now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

// FilterPatients keeps the patients whose name contains query (case
// insensitive) and whose sex matches tab. tab is "masculino", "feminino" or
// anything else for all.
func FilterPatients(patients []Patient, query, tab string) []Patient {
	query = strings.ToLower(strings.TrimSpace(query))
	var sex Sex
	switch strings.ToLower(tab) {
	case "masculino":
		sex = SexMale
	case "feminino":
		sex = SexFemale
	}

	out := make([]Patient, 0, len(patients))
	for _, p := range patients {
		if sex != "" && p.Sex != sex {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
