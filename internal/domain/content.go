package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Kind tells whether an item originated as a full article or a social post.
type Kind string

const (
	KindArticle Kind = "article"
	KindPost    Kind = "post"
	KindVideo   Kind = "video"
	KindImage   Kind = "image"
)

// Platform identifies where an item was published.
type Platform string

const (
	PlatformWeb       Platform = "web"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
)

// ValidKinds and ValidPlatforms are the enumerations the storage schema accepts.
var (
	ValidKinds     = map[Kind]bool{KindArticle: true, KindPost: true, KindVideo: true, KindImage: true}
	ValidPlatforms = map[Platform]bool{PlatformWeb: true, PlatformFacebook: true, PlatformTwitter: true, PlatformInstagram: true}
)

// Engagement carries the social counters attached to an item.
// Counters are refreshed on re-ingestion even when the item itself is skipped.
type Engagement struct {
	Likes    int
	Comments int
	Shares   int
}

// ContentItem is the unit flowing through the ingestion pipeline.
// ID is a pure function of the canonical URL (or the source-assigned post id
// when no URL exists), so re-fetching the same content yields the same ID.
type ContentItem struct {
	ID          string
	Source      string
	Title       string
	Body        string
	URL         string
	Author      string
	PublishedAt time.Time
	Category    string
	Kind        Kind
	Platform    Platform
	Engagement  Engagement
}

// QualityReview is the out-of-band scorer's verdict on a persisted item.
type QualityReview struct {
	ItemID      string
	Score       float64
	Explanation string
	Model       string
	ReviewedAt  time.Time
}

// ItemID derives the stable identifier from the canonical URL. When the item
// has no URL the source-assigned id is hashed instead, keeping the length
// and alphabet uniform across origins.
func ItemID(url, sourceAssignedID string) string {
	key := url
	if key == "" {
		key = sourceAssignedID
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
