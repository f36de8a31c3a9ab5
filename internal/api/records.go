package api

import (
	"context"
	"net/http"
	"net/url"

	"terapia/internal/core"
)

// ListRecords returns the progress records of a program. It is the record
// source of the chart.
func (c *Client) ListRecords(ctx context.Context, token, programID string) ([]core.Application, error) {
	var records []core.Application
	err := c.do(ctx, token, call{
		endpoint: "application.list",
		method:   http.MethodGet,
		path:     "/api/application",
		query:    url.Values{"program_id": {programID}},
		out:      &records,
	})
	return records, err
}

func (c *Client) CreateRecord(ctx context.Context, token string, in core.RecordInput) error {
	in.ID = ""
	return c.do(ctx, token, call{
		endpoint: "application.create",
		method:   http.MethodPost,
		path:     "/api/application",
		body:     in,
	})
}

func (c *Client) UpdateRecord(ctx context.Context, token string, in core.RecordInput) error {
	in.GoalID = ""
	return c.do(ctx, token, call{
		endpoint: "application.update",
		method:   http.MethodPatch,
		path:     "/api/application",
		body:     in,
	})
}

func (c *Client) DeleteRecord(ctx context.Context, token, programID, recordID string) error {
	return c.do(ctx, token, call{
		endpoint: "application.delete",
		method:   http.MethodDelete,
		path:     "/api/application",
		query:    url.Values{"id": {recordID}, "program_id": {programID}},
	})
}
