// Package client talks to the intake HTTP API. It is what the terminal wizard
// submits through, and what staff tooling uses for the admin routes.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "lead-intake/internal/common/errors"
	httpclient "lead-intake/internal/common/http"
	"lead-intake/internal/feed"
	"lead-intake/internal/models"
	"lead-intake/internal/source"
)

const apiPrefix = "/api/v1"

var submitPaths = map[models.Category]string{
	models.CategoryLoan:        "/loans",
	models.CategoryInsurance:   "/insurance",
	models.CategoryConsultancy: "/consultancy",
}

type Client struct {
	baseURL string
	token   string
	source  string
	http    *httpclient.Client
}

type Option func(*Client)

// WithToken sets the bearer token sent on admin calls.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithSource sets the X-Lead-Source header on submissions.
func WithSource(src string) Option {
	return func(c *Client) { c.source = src }
}

func WithHTTPClient(h *httpclient.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpclient.NewClient(15 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope covers every reply shape the API produces.
type envelope struct {
	Success       bool            `json:"success"`
	ApplicationID string          `json:"applicationId"`
	RequestID     string          `json:"requestId"`
	Error         string          `json:"error"`
	Errors        []string        `json:"errors"`
	Application   json.RawMessage `json:"application"`
}

// Submit posts the populated branch of sub to its category route and returns
// the allocated id. A 400 comes back as a VALIDATION_FAILED StandardError.
func (c *Client) Submit(ctx context.Context, sub models.Submission) (string, error) {
	if err := sub.CheckBranch(); err != nil {
		return "", apperrors.NewInvalidRequestError(err.Error(), err)
	}

	headers := map[string]string{}
	if src := sub.Source; src != "" {
		headers[source.HeaderName] = src
	} else if c.source != "" {
		headers[source.HeaderName] = c.source
	}

	resp, err := c.http.JSON(ctx, http.MethodPost, c.baseURL+apiPrefix+submitPaths[sub.Category], headers, sub.Payload())
	if err != nil {
		return "", apperrors.NewExternalServiceError("intake-api", err)
	}

	var env envelope
	if resp.StatusCode == http.StatusForbidden {
		return "", apperrors.NewSourceBlockedError(headers[source.HeaderName], string(sub.Category))
	}
	if resp.StatusCode != http.StatusCreated {
		_ = resp.Decode(&env)
		return "", responseError(resp.StatusCode, env)
	}
	if err := resp.Decode(&env); err != nil {
		return "", apperrors.NewExternalServiceError("intake-api", err)
	}
	if env.ApplicationID != "" {
		return env.ApplicationID, nil
	}
	return env.RequestID, nil
}

// ListApplications fetches one page of the staff feed.
func (c *Client) ListApplications(ctx context.Context, q feed.Query) (*feed.Page, error) {
	params := url.Values{}
	for key, value := range map[string]string{
		"status":   q.Status,
		"category": string(q.Category),
		"search":   q.Search,
		"source":   q.Source,
	} {
		if value != "" {
			params.Set(key, value)
		}
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	target := c.baseURL + apiPrefix + "/admin/applications"
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	resp, err := c.http.JSON(ctx, http.MethodGet, target, c.authHeaders(), nil)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("intake-api", err)
	}
	if resp.StatusCode != http.StatusOK {
		var env envelope
		_ = resp.Decode(&env)
		return nil, responseError(resp.StatusCode, env)
	}

	var page feed.Page
	if err := resp.Decode(&page); err != nil {
		return nil, apperrors.NewExternalServiceError("intake-api", err)
	}
	return &page, nil
}

// UpdateStatus moves a record to status and returns the updated record as JSON.
func (c *Client) UpdateStatus(ctx context.Context, id, status, notes string) (json.RawMessage, error) {
	body := map[string]string{"status": status}
	if notes != "" {
		body["notes"] = notes
	}
	target := fmt.Sprintf("%s%s/admin/applications/%s/status", c.baseURL, apiPrefix, url.PathEscape(id))

	resp, err := c.http.JSON(ctx, http.MethodPatch, target, c.authHeaders(), body)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("intake-api", err)
	}

	var env envelope
	_ = resp.Decode(&env)
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp.StatusCode, env)
	}
	return env.Application, nil
}

func (c *Client) authHeaders() map[string]string {
	if c.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func responseError(status int, env envelope) error {
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusBadRequest && len(env.Errors) > 0:
		return apperrors.NewValidationFailedError(env.Errors)
	case status == http.StatusBadRequest:
		return apperrors.NewInvalidRequestError(msg, nil)
	case status == http.StatusNotFound:
		return apperrors.NewApplicationNotFoundError(fmt.Errorf("%s", msg))
	case status == http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError(msg)
	case status == http.StatusForbidden:
		return apperrors.NewForbiddenError(msg)
	default:
		return apperrors.NewExternalServiceError("intake-api", fmt.Errorf("status %d: %s", status, msg))
	}
}
