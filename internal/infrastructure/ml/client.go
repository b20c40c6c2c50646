package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"MediaScan/internal/classify"
	"MediaScan/internal/ports"
)

// Client talks to the external category-prediction service. Any failure
// falls back to keyword matching so classification never blocks a run.
type Client struct {
	endpoint string
	http     *http.Client
	log      *slog.Logger
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a reusable classifier client. An empty endpoint
// disables the remote path entirely.
func NewClient(endpoint string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		log:      log.With("component", "classifier"),
	}
}

// Classify predicts the category for a title/body pair.
func (c *Client) Classify(ctx context.Context, title, body string) string {
	text := title + " " + body

	if c.endpoint == "" {
		return classify.ByKeywords(text)
	}

	category, err := c.predict(ctx, title, body)
	if err != nil {
		c.log.Warn("remote prediction failed, using keywords", "error", err)
		return classify.ByKeywords(text)
	}
	if category == "" {
		return classify.FallbackCategory
	}
	return category
}

func (c *Client) predict(ctx context.Context, title, body string) (string, error) {
	payload := map[string]any{
		"title":   title,
		"content": body,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/predict", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return out.Category, nil
}
