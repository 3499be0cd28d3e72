// Package verifier calls an external reference verifier as a best-effort
// secondary check. Its outcome is supplementary information only; the
// cryptographic verification in the engine is always authoritative.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"unicred/internal/platform/config"
)

// Result is the external verifier's response.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// External submits a credential for a secondary check.
type External interface {
	Check(ctx context.Context, document map[string]any) (*Result, error)
}

// Client is the HTTP implementation of External.
type Client struct {
	url  string
	http *http.Client
}

// New constructs a Client. The configured timeout bounds each check so a
// slow reference verifier cannot delay primary verification results.
func New(cfg config.VerifierConfig) *Client {
	return &Client{
		url:  cfg.URL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Check(ctx context.Context, document map[string]any) (*Result, error) {
	payload, err := json.Marshal(map[string]any{"verifiableCredential": document})
	if err != nil {
		return nil, fmt.Errorf("marshal verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external verifier request: %w", err)
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode external verifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && result.Error == "" {
		result.Success = false
		result.Error = fmt.Sprintf("external verifier returned status %d", resp.StatusCode)
	}
	return &result, nil
}

var _ External = (*Client)(nil)
