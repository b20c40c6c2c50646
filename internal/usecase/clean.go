package usecase

import (
	"strings"
	"unicode"

	"MediaScan/internal/domain"
)

const (
	minCleanTitleLen = 10
	minBodyLen       = 50
	minURLLen        = 10
)

// Rejection records one item dropped by a stage together with the reason.
type Rejection struct {
	Item   domain.ContentItem
	Reason string
}

// CleanResult carries the surviving items and everything removed.
type CleanResult struct {
	Items      []domain.ContentItem
	Dropped    []Rejection
	Duplicates int
}

// Clean normalizes raw items and drops those beyond repair. Items with
// the same URL collapse to the first occurrence.
func Clean(items []domain.ContentItem) CleanResult {
	var result CleanResult
	seenURLs := map[string]struct{}{}

	for _, item := range items {
		item.Title = normalizeText(item.Title)
		item.Body = normalizeText(item.Body)
		item.URL = strings.TrimSpace(item.URL)
		item.Author = normalizeText(item.Author)

		if len([]rune(item.Title)) < minCleanTitleLen {
			result.Dropped = append(result.Dropped, Rejection{Item: item, Reason: "title too short"})
			continue
		}

		if !strings.HasPrefix(item.URL, "http://") && !strings.HasPrefix(item.URL, "https://") {
			result.Dropped = append(result.Dropped, Rejection{Item: item, Reason: "invalid url"})
			continue
		}
		if len(item.URL) < minURLLen {
			result.Dropped = append(result.Dropped, Rejection{Item: item, Reason: "invalid url"})
			continue
		}

		if len([]rune(item.Body)) < minBodyLen {
			item.Body = item.Title
		}

		item.Engagement = clampEngagement(item.Engagement)

		if _, ok := seenURLs[item.URL]; ok {
			result.Duplicates++
			continue
		}
		seenURLs[item.URL] = struct{}{}

		result.Items = append(result.Items, item)
	}

	return result
}

// normalizeText collapses whitespace runs and strips control characters.
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	return strings.TrimSpace(b.String())
}

func clampEngagement(e domain.Engagement) domain.Engagement {
	if e.Likes < 0 {
		e.Likes = 0
	}
	if e.Comments < 0 {
		e.Comments = 0
	}
	if e.Shares < 0 {
		e.Shares = 0
	}
	return e
}
