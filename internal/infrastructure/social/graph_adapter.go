// Package social implements the source adapter for Graph-style social
// APIs exposing posts as JSON pages.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MediaScan/internal/config"
	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

// GraphAdapter pulls recent posts for one page or account.
type GraphAdapter struct {
	client      *http.Client
	name        string
	group       string
	endpoint    string
	accessToken string
	platform    domain.Platform
}

var _ ports.SourceAdapter = (*GraphAdapter)(nil)

// NewGraphAdapter builds an adapter from source options. Options:
// accessToken (required), platform (facebook by default).
func NewGraphAdapter(client *http.Client, cfg config.SourceConfig) (*GraphAdapter, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("social source %s: missing url", cfg.Name)
	}

	platform := domain.PlatformFacebook
	if p := cfg.Options["platform"]; p != "" {
		platform = domain.Platform(strings.ToLower(p))
		if !domain.ValidPlatforms[platform] {
			return nil, fmt.Errorf("social source %s: unknown platform %s", cfg.Name, p)
		}
	}

	return &GraphAdapter{
		client:      client,
		name:        cfg.Name,
		group:       cfg.Group,
		endpoint:    cfg.URL,
		accessToken: cfg.Options["accessToken"],
		platform:    platform,
	}, nil
}

// Name identifies the source inside its group.
func (g *GraphAdapter) Name() string { return g.name }

// Group returns the pipeline group, defaulting to social.
func (g *GraphAdapter) Group() string {
	if g.group == "" {
		return "social"
	}
	return g.group
}

type graphPage struct {
	Data []graphPost `json:"data"`
}

type graphPost struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	CreatedTime string `json:"created_time"`
	Permalink   string `json:"permalink_url"`
	Type        string `json:"type"`
	Reactions   struct {
		Summary struct {
			TotalCount int `json:"total_count"`
		} `json:"summary"`
	} `json:"reactions"`
	Comments struct {
		Summary struct {
			TotalCount int `json:"total_count"`
		} `json:"summary"`
	} `json:"comments"`
	Shares struct {
		Count int `json:"count"`
	} `json:"shares"`
}

// Fetch requests the posts endpoint and converts entries published on
// or after since, up to limit entries.
func (g *GraphAdapter) Fetch(ctx context.Context, since time.Time, limit int) ([]domain.ContentItem, error) {
	reqURL, err := g.buildURL(since, limit)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("social source %s returned %s", g.name, resp.Status)
	}

	var page graphPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	cutoff := since.Truncate(24 * time.Hour)
	items := make([]domain.ContentItem, 0, len(page.Data))
	for _, post := range page.Data {
		if limit > 0 && len(items) >= limit {
			break
		}

		item := g.convertPost(post)
		if !since.IsZero() && item.PublishedAt.Before(cutoff) {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (g *GraphAdapter) buildURL(since time.Time, limit int) (string, error) {
	parsed, err := url.Parse(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %s: %w", g.endpoint, err)
	}

	query := parsed.Query()
	if g.accessToken != "" {
		query.Set("access_token", g.accessToken)
	}
	if !since.IsZero() {
		query.Set("since", fmt.Sprintf("%d", since.Unix()))
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (g *GraphAdapter) convertPost(post graphPost) domain.ContentItem {
	publishedAt := parseGraphTime(post.CreatedTime)

	title := post.Message
	if idx := strings.IndexAny(title, "\n"); idx > 0 {
		title = title[:idx]
	}

	kind := domain.KindPost
	switch post.Type {
	case "video":
		kind = domain.KindVideo
	case "photo":
		kind = domain.KindImage
	}

	return domain.ContentItem{
		ID:          domain.ItemID(post.Permalink, post.ID),
		Source:      g.name,
		Title:       strings.TrimSpace(title),
		Body:        post.Message,
		URL:         post.Permalink,
		PublishedAt: publishedAt,
		Kind:        kind,
		Platform:    g.platform,
		Engagement: domain.Engagement{
			Likes:    post.Reactions.Summary.TotalCount,
			Comments: post.Comments.Summary.TotalCount,
			Shares:   post.Shares.Count,
		},
	}
}

func parseGraphTime(value string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}
