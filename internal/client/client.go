package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"facet/internal/api"
	"facet/internal/settings"
)

// ErrDaemonUnavailable marks a daemon that could not be reached at all.
var ErrDaemonUnavailable = errors.New("facet daemon unavailable")

// Client talks to the daemon's HTTP API.
type Client struct {
	base     *url.URL
	token    string
	operator string
	http     *http.Client
}

// New builds a client for the given bind address. Token and operator may
// be empty for unauthenticated local use.
func New(bind, token, operator string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("daemon address is required")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, fmt.Errorf("parse daemon address: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base:     base,
		token:    token,
		operator: operator,
		http:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// APIError is a non-2xx response decoded from the daemon's error payload.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Session    *api.SessionSnapshot
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("daemon returned status %d", e.StatusCode)
}

// IsUnavailable reports whether err means the daemon is not reachable.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrDaemonUnavailable) || errors.As(err, &opErr)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.operator != "" {
		req.Header.Set("X-Operator", c.operator)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload api.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Error
			apiErr.Session = payload.Session
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Status fetches daemon health.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// StartSession opens a session for the client's operator.
func (c *Client) StartSession(ctx context.Context) (api.SessionSnapshot, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/sessions", nil,
		api.StartSessionRequest{Operator: c.operator}, &out)
	return out.Session, err
}

// CurrentSession fetches the operator's open session.
func (c *Client) CurrentSession(ctx context.Context) (api.SessionSnapshot, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodGet, "/api/sessions/current", nil, nil, &out)
	return out.Session, err
}

// PauseSession pauses a session.
func (c *Client) PauseSession(ctx context.Context, id int64) (api.SessionSnapshot, error) {
	return c.postTransition(ctx, id, "pause")
}

// ResumeSession resumes a session.
func (c *Client) ResumeSession(ctx context.Context, id int64) (api.SessionSnapshot, error) {
	return c.postTransition(ctx, id, "resume")
}

// StopSession completes a session.
func (c *Client) StopSession(ctx context.Context, id int64) (api.SessionSnapshot, error) {
	return c.postTransition(ctx, id, "stop")
}

func (c *Client) postTransition(ctx context.Context, id int64, verb string) (api.SessionSnapshot, error) {
	var out api.SessionResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/sessions/%d/%s", id, verb), nil, nil, &out)
	return out.Session, err
}

// ListSessions fetches one page of sessions plus the scope checksum.
func (c *Client) ListSessions(ctx context.Context, limit, offset int) (api.SessionListResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
		query.Set("offset", strconv.Itoa(offset))
	}
	var out api.SessionListResponse
	err := c.do(ctx, http.MethodGet, "/api/sessions", query, nil, &out)
	return out, err
}

// SessionsChecksum fetches the session list digest only.
func (c *Client) SessionsChecksum(ctx context.Context) (string, error) {
	var out api.ChecksumResponse
	err := c.do(ctx, http.MethodGet, "/api/sessions/check", nil, nil, &out)
	return out.Checksum, err
}

// ListScans fetches one page of a session's scans plus the scope checksum.
func (c *Client) ListScans(ctx context.Context, sessionID int64, limit, offset int) (api.ScanListResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
		query.Set("offset", strconv.Itoa(offset))
	}
	var out api.ScanListResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%d/scans", sessionID), query, nil, &out)
	return out, err
}

// ScansChecksum fetches one session's scan list digest.
func (c *Client) ScansChecksum(ctx context.Context, sessionID int64) (string, error) {
	var out api.ChecksumResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/sessions/%d/scans/check", sessionID), nil, nil, &out)
	return out.Checksum, err
}

// Settings fetches the dashboard settings document.
func (c *Client) Settings(ctx context.Context) (settings.Document, error) {
	var out settings.Document
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &out)
	return out, err
}

// UpdateSettings applies a partial settings change.
func (c *Client) UpdateSettings(ctx context.Context, req api.SettingsUpdateRequest) (settings.Document, error) {
	var out settings.Document
	err := c.do(ctx, http.MethodPatch, "/api/settings", nil, req, &out)
	return out, err
}
