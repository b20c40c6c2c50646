package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"MediaScan/internal/domain"
	"MediaScan/internal/ports"
)

const (
	stateRowID       = 1
	notificationsCap = 20
)

// Store keeps run state, notifications, history and watermarks in a local
// SQLite database. All methods serialize through a single mutex so the
// running flag behaves like a lock even under concurrent callers.
type Store struct {
	mu sync.Mutex
	db *gorm.DB
}

var _ ports.RunStateStore = (*Store)(nil)

// Open creates (or migrates) the state database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if err := db.AutoMigrate(&RunStateRecord{}, &NotificationRecord{}, &RunHistoryRecord{}, &WatermarkRecord{}); err != nil {
		return nil, fmt.Errorf("migrate state db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// TryStartRun claims the running flag. When a previous run has held the
// flag longer than staleAfter it is considered abandoned and the claim
// succeeds anyway with forced=true.
func (s *Store) TryStartRun(runID string, now time.Time, staleAfter time.Duration) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadStateRow()
	if err != nil {
		return false, false, err
	}

	forced := false
	if rec.Running {
		if rec.StartedAt == nil || now.Sub(*rec.StartedAt) < staleAfter {
			return false, false, nil
		}
		forced = true
	}

	rec.Running = true
	rec.RunID = runID
	rec.StartedAt = &now
	rec.Stage = "starting"
	if err := s.db.Save(rec).Error; err != nil {
		return false, false, fmt.Errorf("claim run flag: %w", err)
	}
	return true, forced, nil
}

// FinishRun clears the running flag and appends the run to history.
func (s *Store) FinishRun(run domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadStateRow()
	if err != nil {
		return err
	}

	rec.Running = false
	rec.RunID = ""
	rec.StartedAt = nil
	rec.Stage = ""
	completed := run.CompletedAt
	rec.LastRunAt = &completed
	if err := s.db.Save(rec).Error; err != nil {
		return fmt.Errorf("clear run flag: %w", err)
	}

	sources, err := json.Marshal(run.Sources)
	if err != nil {
		return fmt.Errorf("encode source breakdown: %w", err)
	}
	hist := RunHistoryRecord{
		RunID:           run.RunID,
		StartedAt:       run.StartedAt,
		CompletedAt:     run.CompletedAt,
		DurationSeconds: run.DurationSeconds,
		Status:          string(run.Status),
		Scraped:         run.Scraped,
		Inserted:        run.Inserted,
		Skipped:         run.Skipped,
		Errors:          run.Errors,
		ErrorMessage:    run.ErrorMessage,
		SourcesJSON:     string(sources),
	}
	if err := s.db.Create(&hist).Error; err != nil {
		return fmt.Errorf("append run history: %w", err)
	}
	return nil
}

// SetProgress updates the stage marker of the active run.
func (s *Store) SetProgress(stage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Model(&RunStateRecord{}).
		Where("id = ?", stateRowID).
		Update("stage", stage).Error
}

// State returns the current run state including the most recent run.
func (s *Store) State() (domain.RunState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadStateRow()
	if err != nil {
		return domain.RunState{}, err
	}

	st := domain.RunState{
		Running: rec.Running,
		RunID:   rec.RunID,
		Stage:   rec.Stage,
	}
	if rec.StartedAt != nil {
		st.StartedAt = *rec.StartedAt
	}
	if rec.LastRunAt != nil {
		st.LastRunAt = *rec.LastRunAt
	}

	var hist RunHistoryRecord
	err = s.db.Order("completed_at DESC").First(&hist).Error
	switch {
	case err == nil:
		run, decErr := historyToDomain(hist)
		if decErr != nil {
			return domain.RunState{}, decErr
		}
		st.LastRun = &run
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return domain.RunState{}, fmt.Errorf("load last run: %w", err)
	}

	return st, nil
}

// Push appends a notification and trims the feed to the newest entries.
func (s *Store) Push(n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := NotificationRecord{
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("push notification: %w", err)
	}

	var keep []int64
	if err := s.db.Model(&NotificationRecord{}).
		Order("id DESC").
		Limit(notificationsCap).
		Pluck("id", &keep).Error; err != nil {
		return fmt.Errorf("trim notifications: %w", err)
	}
	if len(keep) == notificationsCap {
		if err := s.db.Where("id NOT IN ?", keep).Delete(&NotificationRecord{}).Error; err != nil {
			return fmt.Errorf("trim notifications: %w", err)
		}
	}
	return nil
}

// Notifications returns up to limit entries, newest first.
func (s *Store) Notifications(limit int) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > notificationsCap {
		limit = notificationsCap
	}

	var recs []NotificationRecord
	if err := s.db.Order("id DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]domain.Notification, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Notification{
			ID:        r.ID,
			Kind:      domain.NotificationKind(r.Kind),
			Title:     r.Title,
			Message:   r.Message,
			CreatedAt: r.CreatedAt,
			Read:      r.Read,
		})
	}
	return out, nil
}

// MarkRead flags one notification as read.
func (s *Store) MarkRead(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Model(&NotificationRecord{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification %d not found", id)
	}
	return nil
}

// History returns run records newest first with offset pagination.
func (s *Store) History(offset, limit int) ([]domain.RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var recs []RunHistoryRecord
	if err := s.db.Order("completed_at DESC").Offset(offset).Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list run history: %w", err)
	}

	out := make([]domain.RunRecord, 0, len(recs))
	for _, r := range recs {
		run, err := historyToDomain(r)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// Watermark returns the stored timestamp for a source, if any.
func (s *Store) Watermark(source string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec WatermarkRecord
	err := s.db.Where("source = ?", source).First(&rec).Error
	switch {
	case err == nil:
		return rec.Timestamp, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return time.Time{}, false, nil
	default:
		return time.Time{}, false, fmt.Errorf("load watermark: %w", err)
	}
}

// AdvanceWatermark moves a source watermark forward. Older timestamps
// are ignored so the watermark never regresses.
func (s *Store) AdvanceWatermark(source string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec WatermarkRecord
	err := s.db.Where("source = ?", source).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = WatermarkRecord{Source: source, Timestamp: ts, UpdatedAt: time.Now()}
		if err := s.db.Create(&rec).Error; err != nil {
			return fmt.Errorf("create watermark: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load watermark: %w", err)
	}

	if !ts.After(rec.Timestamp) {
		return nil
	}
	rec.Timestamp = ts
	rec.UpdatedAt = time.Now()
	if err := s.db.Save(&rec).Error; err != nil {
		return fmt.Errorf("advance watermark: %w", err)
	}
	return nil
}

func (s *Store) loadStateRow() (*RunStateRecord, error) {
	var rec RunStateRecord
	err := s.db.First(&rec, stateRowID).Error
	switch {
	case err == nil:
		return &rec, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = RunStateRecord{ID: stateRowID}
		if err := s.db.Create(&rec).Error; err != nil {
			return nil, fmt.Errorf("init run state: %w", err)
		}
		return &rec, nil
	default:
		return nil, fmt.Errorf("load run state: %w", err)
	}
}

func historyToDomain(r RunHistoryRecord) (domain.RunRecord, error) {
	run := domain.RunRecord{
		RunID:           r.RunID,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
		DurationSeconds: r.DurationSeconds,
		Status:          domain.RunStatus(r.Status),
		Scraped:         r.Scraped,
		Inserted:        r.Inserted,
		Skipped:         r.Skipped,
		Errors:          r.Errors,
		ErrorMessage:    r.ErrorMessage,
	}
	if r.SourcesJSON != "" {
		if err := json.Unmarshal([]byte(r.SourcesJSON), &run.Sources); err != nil {
			return domain.RunRecord{}, fmt.Errorf("decode source breakdown: %w", err)
		}
	}
	return run, nil
}
