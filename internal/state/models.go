package state

import "time"

// RunStateRecord is the singleton row holding the running flag. A fixed
// primary key keeps updates racing on the same row.
type RunStateRecord struct {
	ID        uint `gorm:"primaryKey"`
	Running   bool
	RunID     string `gorm:"size:64"`
	StartedAt *time.Time
	Stage     string `gorm:"size:128"`
	LastRunAt *time.Time
}

// NotificationRecord is one entry of the bounded notification feed.
type NotificationRecord struct {
	ID        int64     `gorm:"primaryKey"`
	Kind      string    `gorm:"index;size:16"`
	Title     string    `gorm:"size:256"`
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
	Read      bool      `gorm:"index"`
}

// RunHistoryRecord is one append-only entry of run history. The source
// breakdown is stored as JSON to keep the schema flat.
type RunHistoryRecord struct {
	ID              uint   `gorm:"primaryKey"`
	RunID           string `gorm:"uniqueIndex;size:64"`
	StartedAt       time.Time
	CompletedAt     time.Time `gorm:"index"`
	DurationSeconds int
	Status          string `gorm:"index;size:16"`
	Scraped         int
	Inserted        int
	Skipped         int
	Errors          int
	ErrorMessage    string `gorm:"type:text"`
	SourcesJSON     string `gorm:"type:text"`
}

// WatermarkRecord tracks the newest seen publication timestamp per source.
type WatermarkRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Source    string `gorm:"uniqueIndex;size:128"`
	Timestamp time.Time
	UpdatedAt time.Time
}
