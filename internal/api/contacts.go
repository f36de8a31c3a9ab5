package api

import (
	"context"
	"net/http"
	"net/url"

	"terapia/internal/core"
)

func (c *Client) ListContacts(ctx context.Context, token, patientID string) ([]core.Contact, error) {
	var contacts []core.Contact
	err := c.do(ctx, token, call{
		endpoint: "contact.list",
		method:   http.MethodGet,
		path:     "/api/contact",
		query:    url.Values{"patient_id": {patientID}},
		out:      &contacts,
	})
	return contacts, err
}

func (c *Client) CreateContact(ctx context.Context, token string, in core.ContactInput) error {
	in.ID = ""
	return c.do(ctx, token, call{
		endpoint: "contact.create",
		method:   http.MethodPost,
		path:     "/api/contact",
		body:     in,
	})
}

func (c *Client) UpdateContact(ctx context.Context, token string, in core.ContactInput) error {
	return c.do(ctx, token, call{
		endpoint: "contact.update",
		method:   http.MethodPatch,
		path:     "/api/contact",
		body:     in,
	})
}

func (c *Client) DeleteContact(ctx context.Context, token, patientID, contactID string) error {
	return c.do(ctx, token, call{
		endpoint: "contact.delete",
		method:   http.MethodDelete,
		path:     "/api/contact",
		query:    url.Values{"id": {contactID}, "patient_id": {patientID}},
	})
}
