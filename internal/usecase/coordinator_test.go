package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MediaScan/internal/domain"
)

type stubRunner struct {
	group   string
	result  domain.GroupResult
	block   chan struct{}
	doPanic bool
	onRun   func()
}

func (s *stubRunner) Group() string { return s.group }

func (s *stubRunner) Run(ctx context.Context, now time.Time, progress func(string)) domain.GroupResult {
	if s.onRun != nil {
		s.onRun()
	}
	if s.block != nil {
		<-s.block
	}
	if s.doPanic {
		panic("boom")
	}
	res := s.result
	res.Group = s.group
	return res
}

func TestCoordinatorCompletedRun(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	web := &stubRunner{group: "web", result: domain.GroupResult{Scraped: 5, Inserted: 4, Skipped: 1,
		BySource: map[string]*domain.SourceStats{"lefaso.net": {Scraped: 5, Inserted: 4, Skipped: 1}}}}
	social := &stubRunner{group: "social", result: domain.GroupResult{Scraped: 2, Inserted: 2,
		BySource: map[string]*domain.SourceStats{"fb-page": {Scraped: 2, Inserted: 2}}}}

	c := NewCoordinator(state, []GroupRunner{web, social}, nil, 30*time.Minute, testLogger())
	record, err := c.TriggerRun(context.Background(), "test")
	require.NoError(t, err)

	assert.Equal(t, domain.RunCompleted, record.Status)
	assert.Equal(t, 7, record.Scraped)
	assert.Equal(t, 6, record.Inserted)
	assert.Equal(t, 1, record.Skipped)
	assert.Len(t, record.Sources, 2)

	history, err := c.RunHistory(0, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, record.RunID, history[0].RunID)

	st, err := c.RunState()
	require.NoError(t, err)
	assert.False(t, st.Running)
	require.NotNil(t, st.LastRun)

	assert.True(t, state.hasNotification(domain.NotifySuccess, "Collecte"))
}

func TestCoordinatorNotifiesEachPhase(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	var startedBeforeGroups bool
	working := &stubRunner{group: "social", result: domain.GroupResult{Scraped: 3, Inserted: 2, Skipped: 1,
		BySource: map[string]*domain.SourceStats{"fb-page": {Scraped: 3, Inserted: 2, Skipped: 1}}}}
	working.onRun = func() {
		startedBeforeGroups = state.hasNotification(domain.NotifyInfo, "démarrée")
	}
	failing := &stubRunner{group: "web", result: domain.GroupResult{Err: "fetch exploded"}}

	c := NewCoordinator(state, []GroupRunner{working, failing}, nil, 30*time.Minute, testLogger())
	record, err := c.TriggerRun(context.Background(), "phases")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, record.Status)

	assert.True(t, startedBeforeGroups, "start notification must precede the group pipelines")
	assert.True(t, state.hasNotification(domain.NotifySuccess, "Groupe social terminé"))
	assert.True(t, state.hasNotification(domain.NotifyError, "Échec du groupe web"))
	assert.True(t, state.hasNotification(domain.NotifySuccess, "Collecte terminée"))

	notifications, err := state.Notifications(20)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(notifications), 4)
}

func TestCoordinatorSingleFlight(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	block := make(chan struct{})
	slow := &stubRunner{group: "web", block: block}

	c := NewCoordinator(state, []GroupRunner{slow}, nil, 30*time.Minute, testLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.TriggerRun(context.Background(), "first")
	}()

	require.Eventually(t, func() bool {
		st, _ := state.State()
		return st.Running
	}, time.Second, 5*time.Millisecond)

	_, err := c.TriggerRun(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(block)
	wg.Wait()

	// The flag is free again after the first run finishes.
	_, err = c.TriggerRun(context.Background(), "third")
	assert.NoError(t, err)
}

func TestCoordinatorRecoversStaleLock(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	state.running = true
	state.runID = "abandoned"
	state.startedAt = time.Now().UTC().Add(-45 * time.Minute)

	c := NewCoordinator(state, []GroupRunner{&stubRunner{group: "web"}}, nil, 30*time.Minute, testLogger())
	record, err := c.TriggerRun(context.Background(), "recovery")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, record.Status)
	assert.True(t, state.hasNotification(domain.NotifyInfo, "Verrou"))
}

func TestCoordinatorKeepsFreshLock(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	state.running = true
	state.runID = "active"
	state.startedAt = time.Now().UTC().Add(-5 * time.Minute)

	c := NewCoordinator(state, []GroupRunner{&stubRunner{group: "web"}}, nil, 30*time.Minute, testLogger())
	_, err := c.TriggerRun(context.Background(), "too-early")
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestCoordinatorFailsOnlyWhenAllGroupsFail(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	failing := &stubRunner{group: "web", result: domain.GroupResult{Err: "fetch exploded"}}
	working := &stubRunner{group: "social", result: domain.GroupResult{Inserted: 1,
		BySource: map[string]*domain.SourceStats{"fb-page": {Inserted: 1}}}}

	c := NewCoordinator(state, []GroupRunner{failing, working}, nil, 30*time.Minute, testLogger())
	record, err := c.TriggerRun(context.Background(), "partial")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, record.Status)
	assert.Contains(t, record.ErrorMessage, "fetch exploded")
}

func TestCoordinatorAllGroupsFailed(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	c := NewCoordinator(state, []GroupRunner{
		&stubRunner{group: "web", result: domain.GroupResult{Err: "down"}},
		&stubRunner{group: "social", result: domain.GroupResult{Err: "down too"}},
	}, nil, 30*time.Minute, testLogger())

	record, err := c.TriggerRun(context.Background(), "all-fail")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, record.Status)
	assert.True(t, state.hasNotification(domain.NotifyError, "Échec"))
}

func TestCoordinatorSurvivesGroupPanic(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	c := NewCoordinator(state, []GroupRunner{
		&stubRunner{group: "web", doPanic: true},
		&stubRunner{group: "social", result: domain.GroupResult{Inserted: 2,
			BySource: map[string]*domain.SourceStats{"fb-page": {Inserted: 2}}}},
	}, nil, 30*time.Minute, testLogger())

	record, err := c.TriggerRun(context.Background(), "panic")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, record.Status)
	assert.Contains(t, record.ErrorMessage, "panic")
	assert.Equal(t, 2, record.Inserted)

	st, err := c.RunState()
	require.NoError(t, err)
	assert.False(t, st.Running, "flag must be released after a panic")
}

func TestCoordinatorNotificationHelpers(t *testing.T) {
	t.Parallel()

	state := newFakeStateStore()
	c := NewCoordinator(state, []GroupRunner{&stubRunner{group: "web"}}, nil, 30*time.Minute, testLogger())
	_, err := c.TriggerRun(context.Background(), "notify")
	require.NoError(t, err)

	notifications, err := c.Notifications(10)
	require.NoError(t, err)
	require.NotEmpty(t, notifications)
	assert.False(t, notifications[0].Read)

	require.NoError(t, c.MarkNotificationRead(notifications[0].ID))
	notifications, _ = c.Notifications(10)
	assert.True(t, notifications[0].Read)
}
