package domain

import "time"

// RunStatus enumerates lifecycle states of one coordinator run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SourceStats accumulates per-source counters across one run.
type SourceStats struct {
	Scraped    int
	Inserted   int
	Skipped    int
	Errors     int
	LastItemAt time.Time
}

// GroupResult is the outcome of one source-group pipeline within a run.
// Err is set when the whole group failed; per-source trouble lands in
// BySource instead and does not mark the group as failed.
type GroupResult struct {
	Group    string
	Scraped  int
	Inserted int
	Skipped  int
	Errors   int
	BySource map[string]*SourceStats
	Err      string
}

// Failed reports whether the group produced no effect because of an error.
func (r GroupResult) Failed() bool { return r.Err != "" }

// SourceBreakdown is the per-source slice persisted with a run record.
type SourceBreakdown struct {
	Source     string    `json:"source"`
	Scraped    int       `json:"scraped"`
	Inserted   int       `json:"inserted"`
	Skipped    int       `json:"skipped"`
	LastItemAt time.Time `json:"last_item_at,omitempty"`
}

// RunRecord is one entry of the append-only run history.
type RunRecord struct {
	RunID           string
	StartedAt       time.Time
	CompletedAt     time.Time
	DurationSeconds int
	Status          RunStatus
	Scraped         int
	Inserted        int
	Skipped         int
	Errors          int
	ErrorMessage    string
	Sources         []SourceBreakdown
}

// RunState is the operator-visible snapshot of the coordinator.
type RunState struct {
	Running   bool
	RunID     string
	StartedAt time.Time
	Stage     string
	LastRunAt time.Time
	LastRun   *RunRecord
}

// NotificationKind classifies entries of the notification feed.
type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyAlert   NotificationKind = "alert"
)

// Notification is one entry of the bounded operator feed.
type Notification struct {
	ID        int64
	Kind      NotificationKind
	Title     string
	Message   string
	CreatedAt time.Time
	Read      bool
}
