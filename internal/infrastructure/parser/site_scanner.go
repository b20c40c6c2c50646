// Package parser implements HTML-scraping source adapters for news sites
// whose listing pages can be walked with CSS selectors.
package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MediaScan/internal/config"
	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

const userAgent = "MediaScan/1.0"

// SiteScanner crawls a listing page and extracts items via configured
// CSS selectors. Options: item, title, link, date, summary, author.
type SiteScanner struct {
	client    *http.Client
	name      string
	group     string
	listURL   string
	selectors map[string]string
}

var _ ports.SourceAdapter = (*SiteScanner)(nil)

// NewSiteScanner wires an HTTP client; selectors come from source options.
func NewSiteScanner(client *http.Client, cfg config.SourceConfig) (*SiteScanner, error) {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("site %s: missing url", cfg.Name)
	}
	selectors := cfg.Options
	if selectors["item"] == "" {
		return nil, fmt.Errorf("site %s: missing item selector", cfg.Name)
	}
	return &SiteScanner{
		client:    client,
		name:      cfg.Name,
		group:     cfg.Group,
		listURL:   cfg.URL,
		selectors: selectors,
	}, nil
}

// Name identifies the source inside its group.
func (s *SiteScanner) Name() string { return s.name }

// Group returns the pipeline group, defaulting to web.
func (s *SiteScanner) Group() string {
	if s.group == "" {
		return "web"
	}
	return s.group
}

// Fetch downloads the listing page and returns items published on or
// after since, up to limit entries.
func (s *SiteScanner) Fetch(ctx context.Context, since time.Time, limit int) ([]domain.ContentItem, error) {
	doc, err := s.fetchDocument(ctx, s.listURL)
	if err != nil {
		return nil, err
	}

	var items []domain.ContentItem
	doc.Find(s.selectors["item"]).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if limit > 0 && len(items) >= limit {
			return false
		}

		item, ok := s.extractItem(sel)
		if !ok {
			return true
		}
		if !since.IsZero() && item.PublishedAt.Before(since.Truncate(24*time.Hour)) {
			return true
		}
		items = append(items, item)
		return true
	})

	return items, nil
}

func (s *SiteScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("site %s returned %s", s.name, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *SiteScanner) extractItem(sel *goquery.Selection) (domain.ContentItem, bool) {
	title := strings.TrimSpace(sel.Find(s.selectors["title"]).First().Text())

	link := sel.Find(s.selectors["link"]).First()
	href, _ := link.Attr("href")
	href = s.absoluteURL(href)
	if title == "" || href == "" {
		return domain.ContentItem{}, false
	}

	publishedAt := time.Now().UTC()
	if dateSel := s.selectors["date"]; dateSel != "" {
		dateText := strings.TrimSpace(sel.Find(dateSel).First().Text())
		if parsed, err := ParseFrenchDate(dateText); err == nil {
			publishedAt = parsed
		}
	}

	body := ""
	if sumSel := s.selectors["summary"]; sumSel != "" {
		body = strings.TrimSpace(sel.Find(sumSel).First().Text())
	}

	author := ""
	if authSel := s.selectors["author"]; authSel != "" {
		author = strings.TrimSpace(sel.Find(authSel).First().Text())
	}

	return domain.ContentItem{
		ID:          domain.ItemID(href, ""),
		Source:      s.name,
		Title:       title,
		Body:        body,
		URL:         href,
		Author:      author,
		PublishedAt: publishedAt,
		Kind:        domain.KindArticle,
		Platform:    domain.PlatformWeb,
	}, true
}

func (s *SiteScanner) absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(s.listURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
