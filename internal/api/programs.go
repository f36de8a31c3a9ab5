package api

import (
	"context"
	"net/http"
	"net/url"

	"terapia/internal/core"
)

func (c *Client) ListPrograms(ctx context.Context, token, patientID string) ([]core.Program, error) {
	var programs []core.Program
	err := c.do(ctx, token, call{
		endpoint: "program.list",
		method:   http.MethodGet,
		path:     "/api/program",
		query:    url.Values{"patient_id": {patientID}},
		out:      &programs,
	})
	return programs, err
}

func (c *Client) GetProgram(ctx context.Context, token, patientID, programID string) (core.Program, error) {
	programs, err := c.ListPrograms(ctx, token, patientID)
	if err != nil {
		return core.Program{}, err
	}
	for _, p := range programs {
		if p.ID == programID {
			return p, nil
		}
	}
	return core.Program{}, core.ErrNotFound
}

func (c *Client) CreateProgram(ctx context.Context, token string, in core.ProgramInput) error {
	in.ID = ""
	return c.do(ctx, token, call{
		endpoint: "program.create",
		method:   http.MethodPost,
		path:     "/api/program",
		body:     in,
	})
}

func (c *Client) UpdateProgram(ctx context.Context, token string, in core.ProgramInput) error {
	return c.do(ctx, token, call{
		endpoint: "program.update",
		method:   http.MethodPut,
		path:     "/api/program",
		body:     in,
	})
}

func (c *Client) DeleteProgram(ctx context.Context, token, patientID, programID string) error {
	return c.do(ctx, token, call{
		endpoint: "program.delete",
		method:   http.MethodDelete,
		path:     "/api/program",
		query:    url.Values{"id": {programID}, "patient_id": {patientID}},
	})
}
