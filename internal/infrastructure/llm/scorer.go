package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"MediaScan/internal/config"
	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

const reviewPrompt = "Tu évalues la qualité journalistique d'un contenu. " +
	"Réponds en JSON: {\"score\": 0..1, \"explanation\": \"...\"}."

// Scorer implements ports.Scorer backed by OpenAI-compatible chat APIs.
type Scorer struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Scorer = (*Scorer)(nil)

// NewScorer builds a client from configuration.
func NewScorer(cfg config.ScorerConfig) *Scorer {
	return &Scorer{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Score asks the model to review one item and parses the JSON verdict.
func (s *Scorer) Score(ctx context.Context, item domain.ContentItem) (domain.QualityReview, error) {
	if s.apiKey == "" || s.endpoint == "" || s.model == "" {
		return domain.QualityReview{}, fmt.Errorf("scorer misconfigured")
	}

	user := fmt.Sprintf("Titre: %s\n\n%s", item.Title, item.Body)
	body, err := json.Marshal(map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": reviewPrompt},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return domain.QualityReview{}, fmt.Errorf("marshal scorer payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.QualityReview{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.QualityReview{}, fmt.Errorf("score item: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.QualityReview{}, fmt.Errorf("scorer error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var chat struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.QualityReview{}, fmt.Errorf("decode scorer response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return domain.QualityReview{}, fmt.Errorf("scorer returned no choices")
	}

	verdict, err := parseVerdict(chat.Choices[0].Message.Content)
	if err != nil {
		return domain.QualityReview{}, err
	}

	return domain.QualityReview{
		ItemID:      item.ID,
		Score:       verdict.Score,
		Explanation: verdict.Explanation,
		Model:       s.model,
		ReviewedAt:  time.Now().UTC(),
	}, nil
}

type verdict struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

func parseVerdict(content string) (verdict, error) {
	content = strings.TrimSpace(content)
	// Models sometimes wrap the JSON in a code fence.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return verdict{}, fmt.Errorf("parse scorer verdict: %w", err)
	}
	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 1 {
		v.Score = 1
	}
	return v, nil
}
