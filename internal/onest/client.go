package onest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"unicred/internal/platform/config"
	dErrors "unicred/pkg/domain-errors"
)

// Client delivers signed callbacks to BAP endpoints.
type Client struct {
	httpClient   *http.Client
	signer       *Signer
	subscriberID string
	providerID   string
	providerName string
	now          func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientClock overrides the time source, mainly for tests.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithProviderName sets the descriptor name placed in catalog callbacks.
func WithProviderName(name string) ClientOption {
	return func(c *Client) { c.providerName = name }
}

// NewClient builds a callback client for the configured subscriber.
func NewClient(cfg config.OnestConfig, signer *Signer, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		signer:       signer,
		subscriberID: cfg.SubscriberID,
		providerID:   cfg.ProviderID,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts body to targetURL with Beckn signature headers. Any non-2xx
// response is an error so the queue can retry.
func (c *Client) Send(ctx context.Context, targetURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, targetURL, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "building callback request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.signer.AuthHeader(body))
	req.Header.Set("X-Gateway-Authorization", c.subscriberID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delivering callback")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return dErrors.Newf(dErrors.CodeUnavailable, "callback endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// OnSearchBody wraps catalog items in the on_search envelope. contextTemplate
// is the request context echoed back with action and timestamp rewritten.
func (c *Client) OnSearchBody(contextTemplate map[string]any, catalogName string, items []any) ([]byte, error) {
	callbackCtx := make(map[string]any, len(contextTemplate)+2)
	for k, v := range contextTemplate {
		callbackCtx[k] = v
	}
	callbackCtx["action"] = "on_search"
	callbackCtx["timestamp"] = c.now().UTC().Format(time.RFC3339)

	body := map[string]any{
		"context": callbackCtx,
		"message": map[string]any{
			"catalog": map[string]any{
				"descriptor": map[string]any{"name": catalogName},
				"providers": []any{
					map[string]any{
						"id":         c.providerID,
						"descriptor": map[string]any{"name": c.providerName},
						"items":      items,
					},
				},
			},
		},
	}
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling on_search body: %w", err)
	}
	return out, nil
}
