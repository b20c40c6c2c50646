package usecase

import (
	"fmt"
	"sort"
	"strings"

	"MediaScan/internal/domain"
)

const (
	minItemIDLen      = 10
	minValidTitleLen  = 5
	minValidBodyLen   = 10
	maxStoredTitleLen = 500
	maxStoredURLLen   = 1000
	maxReasonExamples = 3
)

// ValidateItem checks an item against the destination schema and
// resolves its source to a media identifier. An empty reason means the
// item is acceptable.
func ValidateItem(item domain.ContentItem, mediaIDs map[string]string) (mediaID, reason string) {
	if len(item.ID) < minItemIDLen {
		return "", "invalid item id"
	}

	mediaID = resolveMedia(item.Source, mediaIDs)
	if mediaID == "" {
		return "", "unknown source"
	}

	if len([]rune(item.Title)) < minValidTitleLen {
		return "", "title too short"
	}

	if item.Body != "" && len([]rune(item.Body)) < minValidBodyLen {
		return "", "body too short"
	}

	if !domain.ValidKinds[item.Kind] {
		return "", "unknown kind"
	}
	if !domain.ValidPlatforms[item.Platform] {
		return "", "unknown platform"
	}

	return mediaID, ""
}

// resolveMedia matches a source name against the media lookup using the
// same normalized spellings the lookup was built with.
func resolveMedia(source string, mediaIDs map[string]string) string {
	lower := strings.ToLower(strings.TrimSpace(source))
	candidates := []string{
		lower,
		strings.ReplaceAll(lower, " ", ""),
		strings.ReplaceAll(lower, ".", ""),
		strings.ReplaceAll(strings.ReplaceAll(lower, " ", ""), ".", ""),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		if id, ok := mediaIDs[c]; ok {
			return id
		}
	}
	return ""
}

// PrepareForStorage truncates over-long fields to the column limits.
func PrepareForStorage(item domain.ContentItem) domain.ContentItem {
	if runes := []rune(item.Title); len(runes) > maxStoredTitleLen {
		item.Title = string(runes[:maxStoredTitleLen])
	}
	if len(item.URL) > maxStoredURLLen {
		item.URL = item.URL[:maxStoredURLLen]
	}
	return item
}

// RejectionReport summarizes rejections grouped by reason, keeping a few
// example titles per reason for the logs.
func RejectionReport(rejections []Rejection) string {
	if len(rejections) == 0 {
		return ""
	}

	counts := map[string]int{}
	examples := map[string][]string{}
	for _, r := range rejections {
		counts[r.Reason]++
		if len(examples[r.Reason]) < maxReasonExamples {
			title := r.Item.Title
			if title == "" {
				title = r.Item.URL
			}
			examples[r.Reason] = append(examples[r.Reason], title)
		}
	}

	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	var b strings.Builder
	for i, reason := range reasons {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %d (e.g. %s)", reason, counts[reason], strings.Join(examples[reason], " | "))
	}
	return b.String()
}
