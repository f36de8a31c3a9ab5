package api

import (
	"context"
	"net/http"
	"net/url"

	"terapia/internal/core"
)

func (c *Client) ListStatuses(ctx context.Context, token string) ([]core.ProgramSetStatus, error) {
	var statuses []core.ProgramSetStatus
	err := c.do(ctx, token, call{
		endpoint: "status.list",
		method:   http.MethodGet,
		path:     "/api/program-set-status",
		out:      &statuses,
	})
	return statuses, err
}

func (c *Client) CreateStatus(ctx context.Context, token, name string) (core.ProgramSetStatus, error) {
	var status core.ProgramSetStatus
	err := c.do(ctx, token, call{
		endpoint: "status.create",
		method:   http.MethodPost,
		path:     "/api/program-set-status",
		body:     map[string]string{"name": name},
		out:      &status,
	})
	return status, err
}

func (c *Client) DeleteStatus(ctx context.Context, token, statusID string) error {
	return c.do(ctx, token, call{
		endpoint: "status.delete",
		method:   http.MethodDelete,
		path:     "/api/program-set-status",
		query:    url.Values{"id": {statusID}},
	})
}
