// Package ports declares the collaborators the web layer depends on. Every
// call carries the caller's bearer token, which stores forward upstream.
package ports

import (
	"context"
	"errors"

	"terapia/internal/core"
)

var (
	// ErrNoToken is returned before any work when the caller has no token.
	ErrNoToken = errors.New("missing access token")
	// ErrUnauthorized means the token was rejected (401/403).
	ErrUnauthorized = errors.New("unauthorized")
)

type (
	PatientStore interface {
		ListPatients(ctx context.Context, token string) ([]core.Patient, error)
		GetPatient(ctx context.Context, token, patientID string) (core.Patient, error)
		CreatePatient(ctx context.Context, token string, in core.PatientInput) error
		UpdatePatient(ctx context.Context, token string, in core.PatientInput) error
	}

	ProgramStore interface {
		ListPrograms(ctx context.Context, token, patientID string) ([]core.Program, error)
		GetProgram(ctx context.Context, token, patientID, programID string) (core.Program, error)
		CreateProgram(ctx context.Context, token string, in core.ProgramInput) error
		UpdateProgram(ctx context.Context, token string, in core.ProgramInput) error
		DeleteProgram(ctx context.Context, token, patientID, programID string) error
	}

	// RecordStore is the record source of the chart as well as its CRUD.
	RecordStore interface {
		ListRecords(ctx context.Context, token, programID string) ([]core.Application, error)
		CreateRecord(ctx context.Context, token string, in core.RecordInput) error
		UpdateRecord(ctx context.Context, token string, in core.RecordInput) error
		DeleteRecord(ctx context.Context, token, programID, recordID string) error
	}

	ContactStore interface {
		ListContacts(ctx context.Context, token, patientID string) ([]core.Contact, error)
		CreateContact(ctx context.Context, token string, in core.ContactInput) error
		UpdateContact(ctx context.Context, token string, in core.ContactInput) error
		DeleteContact(ctx context.Context, token, patientID, contactID string) error
	}

	StatusStore interface {
		ListStatuses(ctx context.Context, token string) ([]core.ProgramSetStatus, error)
		CreateStatus(ctx context.Context, token, name string) (core.ProgramSetStatus, error)
		DeleteStatus(ctx context.Context, token, statusID string) error
	}

	UserReader interface {
		CurrentUser(ctx context.Context, token string) (core.User, error)
	}

	// ExportRequester enqueues a spreadsheet export of a computed chart.
	ExportRequester interface {
		RequestExport(ctx context.Context, req core.ExportRequest) (jobID string, err error)
	}
)
