package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ErrNotReady is returned by GetReadiness when a backing store is down. The
// HealthResponse is still returned so callers can see which check failed.
var ErrNotReady = &APIError{
	StatusCode:  http.StatusServiceUnavailable,
	Code:        ErrorCodeNotReady,
	Description: "one or more dependencies are unavailable",
}

// GetLiveness reports whether the process is serving requests.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.fetchHealth(ctx, "/livez")
}

// GetReadiness reports whether the database and the code store answer.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.fetchHealth(ctx, "/readyz")
}

// fetchHealth decodes a health body for both the healthy and the degraded status.
func (c *SDKClient) fetchHealth(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil, "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		var health HealthResponse
		if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
			return nil, err
		}
		return &health, nil
	}

	defer resp.Body.Close()
	var health HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&health); err != nil {
		return nil, errors.Join(ErrNotReady, err)
	}
	return &health, ErrNotReady.WithDescription(health.Status)
}
