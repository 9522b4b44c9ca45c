package jira

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const httpTimeout = 15 * time.Second

// Client is a minimal Jira Cloud REST client.
type Client struct {
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{HTTPClient: &http.Client{Timeout: httpTimeout}}
}

// Myself calls /rest/api/3/myself on the given site and returns the HTTP
// status code. 200 means the token is valid for that site.
func (c *Client) Myself(ctx context.Context, siteURL, accessToken string) (int, error) {
	url := strings.TrimSuffix(siteURL, "/") + "/rest/api/3/myself"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("jira myself request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
