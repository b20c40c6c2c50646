// Package rss implements the feed-based source adapter for sites that
// publish RSS or Atom.
package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"MediaScan/internal/config"
	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

const maxFeedBody = 10 << 20

// FeedAdapter fetches and parses one RSS/Atom feed.
type FeedAdapter struct {
	client  *http.Client
	name    string
	group   string
	feedURL string
}

var _ ports.SourceAdapter = (*FeedAdapter)(nil)

// NewFeedAdapter wires an HTTP client for the configured feed.
func NewFeedAdapter(client *http.Client, cfg config.SourceConfig) (*FeedAdapter, error) {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("feed %s: missing url", cfg.Name)
	}
	return &FeedAdapter{
		client:  client,
		name:    cfg.Name,
		group:   cfg.Group,
		feedURL: cfg.URL,
	}, nil
}

// Name identifies the source inside its group.
func (f *FeedAdapter) Name() string { return f.name }

// Group returns the pipeline group, defaulting to web.
func (f *FeedAdapter) Group() string {
	if f.group == "" {
		return "web"
	}
	return f.group
}

// Fetch downloads the feed and converts entries published on or after
// since, up to limit entries.
func (f *FeedAdapter) Fetch(ctx context.Context, since time.Time, limit int) ([]domain.ContentItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MediaScan/1.0")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned %s", f.name, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	cutoff := since.Truncate(24 * time.Hour)
	items := make([]domain.ContentItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		if limit > 0 && len(items) >= limit {
			break
		}

		item := f.convertEntry(entry)
		if item.URL == "" {
			continue
		}
		if !since.IsZero() && item.PublishedAt.Before(cutoff) {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (f *FeedAdapter) convertEntry(entry *gofeed.Item) domain.ContentItem {
	link := entry.Link
	if link == "" && (strings.HasPrefix(entry.GUID, "http://") || strings.HasPrefix(entry.GUID, "https://")) {
		link = entry.GUID
	}

	body := entry.Content
	if body == "" {
		body = entry.Description
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}
	if author == "" && len(entry.Authors) > 0 && entry.Authors[0] != nil {
		author = entry.Authors[0].Name
	}

	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		publishedAt = entry.UpdatedParsed.UTC()
	}

	return domain.ContentItem{
		ID:          domain.ItemID(link, entry.GUID),
		Source:      f.name,
		Title:       entry.Title,
		Body:        body,
		URL:         link,
		Author:      author,
		PublishedAt: publishedAt,
		Kind:        domain.KindArticle,
		Platform:    domain.PlatformWeb,
	}
}
