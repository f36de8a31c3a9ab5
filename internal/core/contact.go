package core

import (
	"net/mail"
	"strings"
)

const (
	RelationshipFather      Relationship = "father"
	RelationshipMother      Relationship = "mother"
	RelationshipRelative    Relationship = "relative"
	RelationshipResponsible Relationship = "responsible"
	RelationshipOther       Relationship = "other"
)

// Relationships lists every relationship in display order.
var Relationships = []Relationship{
	RelationshipFather,
	RelationshipMother,
	RelationshipRelative,
	RelationshipResponsible,
	RelationshipOther,
}

type (
	// Relationship is how a contact relates to the patient.
	Relationship string

	Contact struct {
		ID             string       `json:"id" yaml:"id"`
		Name           string       `json:"name" yaml:"name"`
		CPF            string       `json:"cpf" yaml:"cpf"`
		Relationship   Relationship `json:"relationship" yaml:"relationship"`
		Email          string       `json:"email" yaml:"email"`
		PhonePrimary   string       `json:"phone_primary" yaml:"phone_primary"`
		PhoneSecondary *string      `json:"phone_secondary,omitempty" yaml:"phone_secondary"`
		PatientID      string       `json:"patient_id" yaml:"patient_id"`
		CreatedAt      string       `json:"created_at" yaml:"created_at"`
		UpdatedAt      string       `json:"updated_at" yaml:"updated_at"`
	}

	ContactInput struct {
		ID             string       `json:"id,omitempty"`
		Name           string       `json:"name"`
		CPF            string       `json:"cpf"`
		Relationship   Relationship `json:"relationship"`
		Email          string       `json:"email"`
		PhonePrimary   string       `json:"phone_primary"`
		PhoneSecondary string       `json:"phone_secondary,omitempty"`
		PatientID      string       `json:"patient_id"`
	}
)

// Label returns the Portuguese label of the relationship.
func (r Relationship) Label() string {
	switch r {
	case RelationshipFather:
		return "Pai"
	case RelationshipMother:
		return "Mãe"
	case RelationshipRelative:
		return "Parente"
	case RelationshipResponsible:
		return "Responsável"
	case RelationshipOther:
		return "Outro"
	default:
		return string(r)
	}
}

func (r Relationship) Valid() bool {
	for _, known := range Relationships {
		if r == known {
			return true
		}
	}
	return false
}

func (c ContactInput) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if n := len([]rune(strings.TrimSpace(c.CPF))); n < 11 || n > 14 {
		return ErrInvalidCPF
	}
	if !c.Relationship.Valid() {
		return ErrInvalidRelationship
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return ErrInvalidEmail
	}
	if len(strings.TrimSpace(c.PhonePrimary)) < 8 {
		return ErrInvalidPhone
	}
	if strings.TrimSpace(c.PatientID) == "" {
		return ErrEmptyPatient
	}
	return nil
}
