package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

const uniqueViolation = "23505"

// PostgresStore persists validated items into the shared Postgres
// destination used by the publishing stack.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ContentStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// MediaIDs loads the media table and returns a lookup keyed by every
// normalized variant of each media name.
func (s *PostgresStore) MediaIDs(ctx context.Context) (map[string]string, error) {
	query, args, err := s.builder.
		Select("id", "name").
		From("medias").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build medias query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query medias: %w", err)
	}
	defer rows.Close()

	lookup := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		for _, variant := range nameVariants(name) {
			lookup[variant] = id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return lookup, nil
}

// nameVariants produces the spellings a source name may arrive under.
func nameVariants(name string) []string {
	lower := strings.ToLower(strings.TrimSpace(name))
	noSpaces := strings.ReplaceAll(lower, " ", "")
	noDots := strings.ReplaceAll(lower, ".", "")
	bare := strings.ReplaceAll(noSpaces, ".", "")

	seen := map[string]struct{}{}
	var out []string
	for _, v := range []string{lower, noSpaces, noDots, bare} {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ExistsByURL reports whether an item with the URL is already stored.
func (s *PostgresStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	query, args, err := s.builder.
		Select("1").
		From("content_items").
		Where(sq.Eq{"url": url}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("query exists: %w", err)
	}
}

// InsertItem stores one content row. A unique violation on the URL maps
// to domain.ErrDuplicate so callers can count it as skipped.
func (s *PostgresStore) InsertItem(ctx context.Context, item domain.ContentItem, mediaID string) error {
	query, args, err := s.builder.
		Insert("content_items").
		Columns("id", "media_id", "title", "content", "url", "author",
			"published_at", "category", "kind", "platform", "created_at").
		Values(item.ID, mediaID, item.Title, item.Body, item.URL, item.Author,
			item.PublishedAt, item.Category, string(item.Kind), string(item.Platform), time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("insert item %s: %w", item.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert item %s: %w", item.ID, err)
	}

	return nil
}

// UpsertEngagement stores or refreshes the engagement counters for an item.
func (s *PostgresStore) UpsertEngagement(ctx context.Context, itemID string, e domain.Engagement, kind domain.Kind, platform domain.Platform) error {
	query, args, err := s.builder.
		Insert("engagement_metrics").
		Columns("item_id", "likes", "comments", "shares", "kind", "platform", "updated_at").
		Values(itemID, e.Likes, e.Comments, e.Shares, string(kind), string(platform), time.Now().UTC()).
		Suffix(`ON CONFLICT (item_id) DO UPDATE
                SET likes = EXCLUDED.likes,
                    comments = EXCLUDED.comments,
                    shares = EXCLUDED.shares,
                    updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build engagement upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert engagement %s: %w", itemID, err)
	}

	return nil
}

// LastItemDate returns the newest publication timestamp for a media.
func (s *PostgresStore) LastItemDate(ctx context.Context, mediaID string) (time.Time, error) {
	query, args, err := s.builder.
		Select("MAX(published_at)").
		From("content_items").
		Where(sq.Eq{"media_id": mediaID}).
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("build last-date query: %w", err)
	}

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return time.Time{}, fmt.Errorf("query last date: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

// PublicationDays counts distinct calendar days with at least one item.
func (s *PostgresStore) PublicationDays(ctx context.Context, mediaID string, since time.Time) (int, error) {
	query, args, err := s.builder.
		Select("COUNT(DISTINCT DATE(published_at))").
		From("content_items").
		Where(sq.Eq{"media_id": mediaID}).
		Where(sq.GtOrEq{"published_at": since}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build publication-days query: %w", err)
	}

	var days int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&days); err != nil {
		return 0, fmt.Errorf("query publication days: %w", err)
	}
	return days, nil
}

// UnreviewedItems returns stored items without a quality review yet.
func (s *PostgresStore) UnreviewedItems(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := s.builder.
		Select("c.id", "c.title", "c.content", "c.url", "c.published_at", "c.category", "c.kind", "c.platform").
		From("content_items c").
		LeftJoin("quality_reviews r ON r.item_id = c.id").
		Where("r.item_id IS NULL").
		OrderBy("c.published_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unreviewed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unreviewed: %w", err)
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		var item domain.ContentItem
		var kind, platform string
		if err := rows.Scan(&item.ID, &item.Title, &item.Body, &item.URL,
			&item.PublishedAt, &item.Category, &kind, &platform); err != nil {
			return nil, fmt.Errorf("scan unreviewed: %w", err)
		}
		item.Kind = domain.Kind(kind)
		item.Platform = domain.Platform(platform)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return items, nil
}

// SaveReview stores one quality review, replacing any previous verdict.
func (s *PostgresStore) SaveReview(ctx context.Context, review domain.QualityReview) error {
	query, args, err := s.builder.
		Insert("quality_reviews").
		Columns("item_id", "score", "explanation", "model", "reviewed_at").
		Values(review.ItemID, review.Score, review.Explanation, review.Model, review.ReviewedAt).
		Suffix(`ON CONFLICT (item_id) DO UPDATE
                SET score = EXCLUDED.score,
                    explanation = EXCLUDED.explanation,
                    model = EXCLUDED.model,
                    reviewed_at = EXCLUDED.reviewed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build review upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save review %s: %w", review.ItemID, err)
	}

	return nil
}
