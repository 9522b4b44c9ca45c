package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 15 * time.Second

// Client checks Discord incoming webhooks. A GET on a webhook URL returns its
// metadata when the webhook still exists.
type Client struct {
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{HTTPClient: &http.Client{Timeout: httpTimeout}}
}

// CheckWebhook issues a GET against the webhook URL and returns the HTTP
// status code. Network-level failures are returned as errors.
func (c *Client) CheckWebhook(ctx context.Context, webhookURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webhookURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("discord webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
