package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.linear.app"
	httpTimeout    = 15 * time.Second
)

// Client is a minimal Linear GraphQL client.
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

type viewerResponse struct {
	Data struct {
		Viewer struct {
			ID string `json:"id"`
		} `json:"viewer"`
	} `json:"data"`
}

// Viewer runs `{ viewer { id } }` and returns the authenticated user's id.
// An empty id with nil error means the token was not accepted.
func (c *Client) Viewer(ctx context.Context, accessToken string) (string, error) {
	body, _ := json.Marshal(map[string]string{"query": "{ viewer { id } }"})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("linear viewer query failed: %w", err)
	}
	defer resp.Body.Close()

	var out viewerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("linear returned invalid JSON: %w", err)
	}
	return out.Data.Viewer.ID, nil
}
