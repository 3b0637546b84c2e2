// Package apiclient is the HTTP client for the LifeOS REST API. It satisfies
// workspace.API and exposes the read-only derived views the CLI prints.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/lifeos/internal/clientstate"
	lerrors "github.com/p-blackswan/lifeos/internal/errors"
	"github.com/p-blackswan/lifeos/internal/requestid"
	"github.com/p-blackswan/lifeos/internal/stats"
	"github.com/p-blackswan/lifeos/internal/structure"
	"github.com/p-blackswan/lifeos/internal/templates"
)

const service = "lifeos"

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the LifeOS REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient HTTPClient
	logger     zerolog.Logger
}

// New creates a client for baseURL. token is sent as a bearer token when set.
func New(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "apiclient").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

// do executes an authenticated API request and decodes a JSON response into
// out when out is non-nil. Failures are *lerrors.APIError wrapping the
// sentinel for the status code.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &lerrors.APIError{Service: service, Message: err.Error(), Err: lerrors.ErrUnavailable}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("api call")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))
	var p problem
	if json.Unmarshal(raw, &p) == nil && (p.Detail != "" || p.Title != "") {
		msg = p.Detail
		if msg == "" {
			msg = p.Title
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &lerrors.APIError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    msg,
		Err:        lerrors.StatusSentinel(resp.StatusCode),
	}
}

// GetStructures fetches the caller's structures.
func (c *Client) GetStructures(ctx context.Context) ([]structure.APIStructure, error) {
	var out []structure.APIStructure
	if err := c.do(ctx, http.MethodGet, "/api/v1/structures", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateStructure creates a structure from a draft.
func (c *Client) CreateStructure(ctx context.Context, d structure.Draft) (structure.APIStructure, error) {
	var out structure.APIStructure
	err := c.do(ctx, http.MethodPost, "/api/v1/structures", d, &out)
	return out, err
}

// CreateStructureFromTemplate creates a structure from a catalogue template.
// An empty name keeps the template's.
func (c *Client) CreateStructureFromTemplate(ctx context.Context, key, name string) (structure.APIStructure, error) {
	var out structure.APIStructure
	body := map[string]string{"template": key, "name": name}
	err := c.do(ctx, http.MethodPost, "/api/v1/structures", body, &out)
	return out, err
}

// UpdateStructureLevels replaces a structure's level list.
func (c *Client) UpdateStructureLevels(ctx context.Context, id string, levels []string) (structure.APIStructure, error) {
	var out structure.APIStructure
	body := map[string][]string{"levels": levels}
	err := c.do(ctx, http.MethodPut, "/api/v1/structures/"+url.PathEscape(id)+"/levels", body, &out)
	return out, err
}

// DeleteStructure deletes a structure.
func (c *Client) DeleteStructure(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/structures/"+url.PathEscape(id), nil, nil)
}

// Templates lists the structure templates.
func (c *Client) Templates(ctx context.Context) ([]templates.Template, error) {
	var out []templates.Template
	err := c.do(ctx, http.MethodGet, "/api/v1/structure-templates", nil, &out)
	return out, err
}

// Me returns the identity the server resolved for the token.
func (c *Client) Me(ctx context.Context) (clientstate.UserContext, error) {
	var out clientstate.UserContext
	err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &out)
	return out, err
}

// HabitStats returns per-habit streaks and completion rates as of date
// (YYYY-MM-DD, empty for the server's today) in tz.
func (c *Client) HabitStats(ctx context.Context, date, tz, structureID string) ([]stats.HabitStats, error) {
	var out []stats.HabitStats
	err := c.do(ctx, http.MethodGet, "/api/v1/habits/stats"+query("date", date, "tz", tz, "structure", structureID), nil, &out)
	return out, err
}

// GoalProgress returns the goals roll-up.
func (c *Client) GoalProgress(ctx context.Context, structureID string) (stats.ProgressSummary, error) {
	var out stats.ProgressSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/goals/progress"+query("structure", structureID), nil, &out)
	return out, err
}

// Calendar is a month grid as returned by the API.
type Calendar struct {
	Month    string          `json:"month"`
	Timezone string          `json:"timezone"`
	Days     []stats.GridDay `json:"days"`
}

// Calendar fetches the month grid for month (YYYY-MM, empty for the current one).
func (c *Client) Calendar(ctx context.Context, month, tz, structureID string) (Calendar, error) {
	var out Calendar
	err := c.do(ctx, http.MethodGet, "/api/v1/calendar"+query("month", month, "tz", tz, "structure", structureID), nil, &out)
	return out, err
}

// query builds a query string from key/value pairs, skipping empty values.
func query(kv ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			v.Set(kv[i], kv[i+1])
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
