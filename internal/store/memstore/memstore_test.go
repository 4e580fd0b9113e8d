package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephage/cinephage/internal/store"
)

func TestQueueRepo_AddGetUpdate(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.Queue.Add(ctx, store.QueueItem{ContentKey: "movie:1", Title: "X", Status: store.QueueStatusQueued})
	require.NoError(t, err)

	got, err := s.Queue.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "movie:1", got.ContentKey)

	got.Status = store.QueueStatusDownloading
	require.NoError(t, s.Queue.Update(ctx, *got))

	again, err := s.Queue.ByContentKey(ctx, "movie:1")
	require.NoError(t, err)
	assert.Equal(t, store.QueueStatusDownloading, again.Status)
}

func TestPendingRepo_DueBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	_, _ = s.Pending.Add(ctx, store.PendingRelease{ContentKey: "movie:1", ProcessAt: now.Add(-time.Minute)})
	_, _ = s.Pending.Add(ctx, store.PendingRelease{ContentKey: "movie:2", ProcessAt: now.Add(time.Hour)})

	due, err := s.Pending.DueBefore(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "movie:1", due[0].ContentKey)
}

func TestPendingRepo_UpdateStatusExcludesFromByContentKeyAndDueBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	id, err := s.Pending.Add(ctx, store.PendingRelease{ContentKey: "movie:1", ProcessAt: now.Add(-time.Minute)})
	require.NoError(t, err)

	p, err := s.Pending.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, store.PendingStatusPending, p.Status)

	p.Status = store.PendingStatusSuperseded
	p.SupersededBy = 99
	require.NoError(t, s.Pending.Update(ctx, *p))

	active, err := s.Pending.ByContentKey(ctx, "movie:1")
	require.NoError(t, err)
	assert.Nil(t, active, "a superseded row is no longer the active pending row")

	due, err := s.Pending.DueBefore(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due, "a superseded row is never due for dispatch")

	reread, err := s.Pending.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, reread)
	assert.Equal(t, store.PendingStatusSuperseded, reread.Status)
	assert.Equal(t, int64(99), reread.SupersededBy)
}

func TestBlocklistRepo_PruneExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	_, _ = s.Blocklist.Add(ctx, store.BlocklistEntry{ContentKey: "movie:1", ExpiresAt: &past})
	_, _ = s.Blocklist.Add(ctx, store.BlocklistEntry{ContentKey: "movie:1"})

	pruned, err := s.Blocklist.PruneExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	remaining, err := s.Blocklist.ForContentKey(ctx, "movie:1")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestHistoryRepo_StartFinish(t *testing.T) {
	s := New()
	ctx := context.Background()
	start := time.Now()

	id, err := s.History.StartTask(ctx, "task-1", "missing_content", start)
	require.NoError(t, err)

	require.NoError(t, s.History.FinishTask(ctx, id, start.Add(time.Second), store.TaskStatusCompleted, 10, 2, ""))

	recent, err := s.History.RecentTasks(ctx, "missing_content", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, store.TaskStatusCompleted, recent[0].Status)
	assert.Equal(t, 2, recent[0].ReleasesGrabbed)
}

func TestLibraryRepo_CascadingMonitoringFields(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "series:1:s01e01", MediaType: "episode", SeriesMonitored: true, SeasonMonitored: true, EpisodeMonitored: false})

	item, err := s.Library.GetByContentKey(ctx, "series:1:s01e01")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.False(t, item.EpisodeMonitored)
}
