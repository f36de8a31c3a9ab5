package api

import (
	"context"
	"net/http"

	"terapia/internal/core"
)

func (c *Client) ListPatients(ctx context.Context, token string) ([]core.Patient, error) {
	var patients []core.Patient
	err := c.do(ctx, token, call{
		endpoint: "patient.list",
		method:   http.MethodGet,
		path:     "/api/patient",
		out:      &patients,
	})
	return patients, err
}

// GetPatient has no dedicated endpoint upstream; it looks the patient up in
// the list.
func (c *Client) GetPatient(ctx context.Context, token, patientID string) (core.Patient, error) {
	patients, err := c.ListPatients(ctx, token)
	if err != nil {
		return core.Patient{}, err
	}
	for _, p := range patients {
		if p.ID == patientID {
			return p, nil
		}
	}
	return core.Patient{}, core.ErrNotFound
}

func (c *Client) CreatePatient(ctx context.Context, token string, in core.PatientInput) error {
	in.ID = ""
	return c.do(ctx, token, call{
		endpoint: "patient.create",
		method:   http.MethodPost,
		path:     "/api/patient",
		body:     in,
	})
}

func (c *Client) UpdatePatient(ctx context.Context, token string, in core.PatientInput) error {
	return c.do(ctx, token, call{
		endpoint: "patient.update",
		method:   http.MethodPatch,
		path:     "/api/patient",
		body:     in,
	})
}
