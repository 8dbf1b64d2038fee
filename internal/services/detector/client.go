package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"facet/internal/services"
)

const (
	defaultHealthTimeout = 5 * time.Second
	defaultDetectTimeout = 30 * time.Second
)

// HTTPDoer describes the HTTP client used by the detector service client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the external detection service over HTTP.
type Client struct {
	baseURL       string
	client        HTTPDoer
	healthTimeout time.Duration
	detectTimeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, typically with a
// test double.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.client = doer }
}

// WithDetectTimeout overrides the per-frame detection deadline.
func WithDetectTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.detectTimeout = d
		}
	}
}

// WithHealthTimeout overrides the liveness probe deadline.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.healthTimeout = d
		}
	}
}

// NewClient constructs a detector client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:        http.DefaultClient,
		healthTimeout: defaultHealthTimeout,
		detectTimeout: defaultDetectTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health probes GET /health. It returns ErrUnavailable when the service is
// unreachable or reports an unhealthy status.
func (c *Client) Health(ctx context.Context) error {
	if c == nil || c.baseURL == "" {
		return services.Wrap(services.ErrUnavailable, "detector", "health", "no detector configured", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "detector", "health", "build request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "detector", "health", "probe failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrUnavailable, "detector", "health",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return services.Wrap(services.ErrUnavailable, "detector", "health", "decode response", err)
	}
	if !payload.Healthy() {
		return services.Wrap(services.ErrUnavailable, "detector", "health",
			fmt.Sprintf("service reports %q", payload.Status), nil)
	}
	return nil
}

// Detect submits one frame to POST /detect/frame as a multipart upload and
// returns the normalized verdict. Failures classify as ErrDetection and are
// not retried here; the caller decides whether to resubmit the frame.
func (c *Client) Detect(ctx context.Context, image []byte, filename string, capturedAt time.Time) (*Response, error) {
	if len(image) == 0 {
		return nil, services.Wrap(services.ErrValidation, "detector", "detect", "empty image payload", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.detectTimeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "build multipart body", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "write image part", err)
	}
	if err := writer.WriteField("captured_at", capturedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "write metadata", err)
	}
	if err := writer.Close(); err != nil {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "finalize multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect/frame", &body)
	if err != nil {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, services.Wrap(services.ErrDetection, "detector", "detect",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var verdict Response
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "decode response", err)
	}
	if strings.TrimSpace(verdict.FinalDecision) == "" {
		return nil, services.Wrap(services.ErrDetection, "detector", "detect", "response missing final_decision", nil)
	}
	verdict.Normalize()
	return &verdict, nil
}
