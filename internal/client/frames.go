package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"facet/internal/api"
)

// IngestFrame uploads one captured frame to an open session and returns
// the scan verdict plus the refreshed session counters.
func (c *Client) IngestFrame(ctx context.Context, sessionID int64, image []byte, filename string, capturedAt time.Time) (api.FrameResponse, error) {
	var out api.FrameResponse
	if len(image) == 0 {
		return out, errors.New("frame image is required")
	}
	if filename == "" {
		filename = "frame.jpg"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return out, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return out, fmt.Errorf("build multipart body: %w", err)
	}
	if !capturedAt.IsZero() {
		if err := writer.WriteField("captured_at", capturedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return out, fmt.Errorf("build multipart body: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return out, fmt.Errorf("build multipart body: %w", err)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: fmt.Sprintf("/api/sessions/%d/frames", sessionID)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.operator != "" {
		req.Header.Set("X-Operator", c.operator)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
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
		return out, apiErr
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}
