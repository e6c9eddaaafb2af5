// Package api is the client of the remote time-entry API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// Options configure a Client.
type Options struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// Location is used to read instants as calendar dates and clock times.
	Location *time.Location
}

// Client is a resty-backed timesheet.Store talking to the time-entry API.
type Client struct {
	http   *resty.Client
	loc    *time.Location
	logger *zap.Logger
}

// NewClient builds an API client using the provided options.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	httpClient := &http.Client{}
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	restyClient := resty.NewWithClient(httpClient)
	restyClient.
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout)

	return &Client{http: restyClient, loc: opts.Location, logger: logger}
}

// apiError represents an error payload of the API.
type apiError struct {
	Message    any    `json:"message"`
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
}

func (e *apiError) text() string {
	switch m := e.Message.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, p := range m {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	}
	return e.Error
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	apiErr := new(apiError)
	_ = json.Unmarshal(resp.Body(), apiErr)
	msg := apiErr.text()
	if msg == "" {
		msg = resp.Status()
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %s", op, timesheet.ErrNotFound, msg)
	}
	return fmt.Errorf("%s: api error: code=%d, message=%s", op, resp.StatusCode(), msg)
}

// FetchEntries implements timesheet.Fetcher.
func (c *Client) FetchEntries(ctx context.Context, q model.Query) ([]model.RawTimeEntry, error) {
	params := map[string]string{}
	if !q.Start.IsZero() {
		params["startDate"] = q.Start.String()
	}
	if !q.End.IsZero() {
		params["endDate"] = q.End.String()
	}
	if q.EmployeeID != "" {
		params["employeeId"] = q.EmployeeID
	}
	if q.Status != "" {
		params["status"] = string(q.Status)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetHeader("Cache-Control", "no-cache").
		SetHeader("Pragma", "no-cache").
		SetHeader("Expires", "0").
		Get("/time-entries")
	if err := c.check(resp, err, "fetch time entries"); err != nil {
		return nil, err
	}

	dtos, err := decodeList[timeEntryDTO](resp.Body())
	if err != nil {
		return nil, fmt.Errorf("fetch time entries: %w", err)
	}
	entries := make([]model.RawTimeEntry, 0, len(dtos))
	for _, d := range dtos {
		entries = append(entries, d.toModel(c.loc))
	}
	c.resolveNames(ctx, entries)
	c.logger.Debug("fetched time entries", zap.Int("count", len(entries)), zap.String("start", q.Start.String()), zap.String("end", q.End.String()))
	return entries, nil
}

// resolveNames fills in employee names the entries were delivered without.
func (c *Client) resolveNames(ctx context.Context, entries []model.RawTimeEntry) {
	missing := false
	for _, e := range entries {
		if e.Employee.Name == "" && e.Employee.ID != "" {
			missing = true
			break
		}
	}
	if !missing {
		return
	}

	names := map[string]string{}
	employees, err := c.ListEmployees(ctx)
	if err != nil {
		c.logger.Debug("employee lookup failed, using fallback names", zap.Error(err))
	}
	for _, emp := range employees {
		names[emp.ID] = emp.Name
	}
	for i := range entries {
		e := &entries[i].Employee
		if e.Name != "" || e.ID == "" {
			continue
		}
		if n := names[e.ID]; n != "" {
			e.Name = n
		} else {
			e.Name = fallbackName(e.ID)
		}
	}
}

// ListEmployees implements timesheet.Directory.
func (c *Client) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/employees")
	if err := c.check(resp, err, "list employees"); err != nil {
		return nil, err
	}
	dtos, err := decodeList[employeeDTO](resp.Body())
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]model.Employee, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (c *Client) entry(resp *resty.Response, err error, op string) (model.RawTimeEntry, error) {
	if err := c.check(resp, err, op); err != nil {
		return model.RawTimeEntry{}, err
	}
	var d timeEntryDTO
	if err := json.Unmarshal(resp.Body(), &d); err != nil {
		return model.RawTimeEntry{}, fmt.Errorf("%s: decode response: %w", op, err)
	}
	e := d.toModel(c.loc)
	if e.Employee.Name == "" && e.Employee.ID != "" {
		e.Employee.Name = fallbackName(e.Employee.ID)
	}
	return e, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (model.RawTimeEntry, error) {
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).Get("/time-entries/{id}")
	return c.entry(resp, err, "get time entry")
}

func (c *Client) CreateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(newEntryPayload(e, c.loc)).Post("/time-entries")
	return c.entry(resp, err, "create time entry")
}

func (c *Client) UpdateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", e.ID).
		SetBody(newEntryPayload(e, c.loc)).
		Put("/time-entries/{id}")
	return c.entry(resp, err, "update time entry")
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).Delete("/time-entries/{id}")
	return c.check(resp, err, "delete time entry")
}

// Approve implements timesheet.Reviewer.
func (c *Client) Approve(ctx context.Context, id string) (model.RawTimeEntry, error) {
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).Post("/time-entries/{id}/approve")
	return c.entry(resp, err, "approve time entry")
}

// Reject implements timesheet.Reviewer.
func (c *Client) Reject(ctx context.Context, id, reason string) (model.RawTimeEntry, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(map[string]string{"reason": reason}).
		Post("/time-entries/{id}/reject")
	return c.entry(resp, err, "reject time entry")
}
