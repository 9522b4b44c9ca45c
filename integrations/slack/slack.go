package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://slack.com/api"
	httpTimeout    = 15 * time.Second
)

// Client is a minimal Slack Web API client, scoped to what health probing
// needs (auth.test).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: httpTimeout},
	}
}

// AuthTestResponse mirrors the auth.test payload. ok:false carries Slack's
// machine-readable error string (e.g. "invalid_auth").
type AuthTestResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Team  string `json:"team,omitempty"`
	URL   string `json:"url,omitempty"`
}

// AuthTest calls auth.test with the given bot token. Transport failures
// return an error; an API-level rejection returns ok:false without error.
func (c *Client) AuthTest(ctx context.Context, botToken string) (*AuthTestResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/auth.test", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+botToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack auth.test request failed: %w", err)
	}
	defer resp.Body.Close()

	var out AuthTestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("slack auth.test returned invalid JSON: %w", err)
	}
	return &out, nil
}
