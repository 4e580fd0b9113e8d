package download

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephage/cinephage/internal/external"
	"github.com/cinephage/cinephage/internal/external/mock"
	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search"
	"github.com/cinephage/cinephage/internal/specification"
	"github.com/cinephage/cinephage/internal/store"
	"github.com/cinephage/cinephage/internal/store/memstore"
)

func newTestController(clients ...external.DownloadClientAdapter) (*Controller, *memstore.Store) {
	s := memstore.New()
	importer := &mock.Importer{}
	c := New(DefaultConfig(), clients, s.Queue, s.Pending, s.Blocklist, s.Library, importer, zerolog.Nop())
	return c, s
}

func TestGrab_DispatchesImmediatelyWithoutDelay(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Name: "client-a", Protocol: external.ProtocolTorrent, Priority: 10, Enabled: true})
	c, s := newTestController(client)

	result := search.Result{Title: "Movie.2020.1080p", Protocol: scoring.ProtocolTorrent, MagnetURL: "magnet:?xt=fake"}
	err := c.Grab(context.Background(), "movie:1", result, scoring.Profile{}, nil)
	require.NoError(t, err)

	item, err := s.Queue.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, store.QueueStatusDownloading, item.Status)
}

func TestGrab_DelayedHigherScoreSupersedesExisting(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	c, s := newTestController(client)

	processAt := time.Now().Add(time.Hour)
	delay := &specification.DelayDecision{ShouldDelay: true, ProcessAt: processAt}

	result1 := search.Result{Title: "First.Release", Protocol: scoring.ProtocolTorrent}
	result1.Score.TotalScore = 10
	require.NoError(t, c.Grab(context.Background(), "movie:1", result1, scoring.Profile{}, delay))

	first, err := s.Pending.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.NotNil(t, first)

	result2 := search.Result{Title: "Second.Release", Protocol: scoring.ProtocolTorrent}
	result2.Score.TotalScore = 20
	require.NoError(t, c.Grab(context.Background(), "movie:1", result2, scoring.Profile{}, delay))

	p, err := s.Pending.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Second.Release", p.Title)
	assert.Equal(t, store.PendingStatusPending, p.Status)

	due, err := s.Pending.DueBefore(context.Background(), processAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, due, 1)

	superseded, err := s.Pending.Get(context.Background(), first.ID)
	require.NoError(t, err)
	require.NotNil(t, superseded)
	assert.Equal(t, store.PendingStatusSuperseded, superseded.Status)
	assert.Equal(t, p.ID, superseded.SupersededBy)
}

func TestGrab_DelayedLowerScoreDoesNotSupersedeExisting(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	c, s := newTestController(client)

	processAt := time.Now().Add(time.Hour)
	delay := &specification.DelayDecision{ShouldDelay: true, ProcessAt: processAt}

	result1 := search.Result{Title: "Better.Release", Protocol: scoring.ProtocolTorrent}
	result1.Score.TotalScore = 20
	require.NoError(t, c.Grab(context.Background(), "movie:1", result1, scoring.Profile{}, delay))

	result2 := search.Result{Title: "Worse.Release", Protocol: scoring.ProtocolTorrent}
	result2.Score.TotalScore = 10
	require.NoError(t, c.Grab(context.Background(), "movie:1", result2, scoring.Profile{}, delay))

	p, err := s.Pending.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Better.Release", p.Title)

	due, err := s.Pending.DueBefore(context.Background(), processAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestPollOnce_CompletedJobImportsAndMarksCompleted(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	c, s := newTestController(client)

	result := search.Result{Title: "Movie", Protocol: scoring.ProtocolTorrent}
	require.NoError(t, c.Grab(context.Background(), "movie:1", result, scoring.Profile{}, nil))

	item, err := s.Queue.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	client.SetStatus(item.ExternalID, external.ClientStatus{State: external.ClientStateCompleted, SavePath: "/downloads/movie"})

	require.NoError(t, c.PollOnce(context.Background()))

	updated, err := s.Queue.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, store.QueueStatusCompleted, updated.Status)
}

func TestPollOnce_RepeatedFailureBlocklistsAfterMaxAttempts(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	c, s := newTestController(client)

	result := search.Result{Title: "Movie", Protocol: scoring.ProtocolTorrent}
	require.NoError(t, c.Grab(context.Background(), "movie:1", result, scoring.Profile{}, nil))

	item, err := s.Queue.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	client.SetStatus(item.ExternalID, external.ClientStatus{State: external.ClientStateError, ErrorMessage: "disk full"})

	for i := 0; i < DefaultConfig().MaxImportAttempts; i++ {
		require.NoError(t, c.PollOnce(context.Background()))
	}

	gone, err := s.Queue.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	entries, err := s.Blocklist.ForContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.BlocklistReasonDownloadFailed, entries[0].Reason)
}

func TestHandleFailure_ImportErrorBlocklistsWithImportFailedReason(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	s := memstore.New()
	importer := &mock.Importer{}
	cfg := DefaultConfig()
	cfg.MaxImportAttempts = 1
	c := New(cfg, []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, importer, zerolog.Nop())

	result := search.Result{Title: "Movie", Protocol: scoring.ProtocolTorrent}
	require.NoError(t, c.Grab(context.Background(), "movie:1", result, scoring.Profile{}, nil))

	item, err := s.Queue.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	client.SetStatus(item.ExternalID, external.ClientStatus{State: external.ClientStateCompleted, SavePath: "/downloads/movie"})
	importer.FailNext(assert.AnError)

	require.NoError(t, c.PollOnce(context.Background()))

	entries, err := s.Blocklist.ForContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, store.BlocklistReasonImportFailed, entries[0].Reason)
}

func TestSweepOrphans_RemovesQueueItemsWithUnconfiguredClient(t *testing.T) {
	c, s := newTestController()
	_, err := s.Queue.Add(context.Background(), store.QueueItem{
		ContentKey: "movie:1", DownloadClientID: 99, Status: store.QueueStatusDownloading,
		AddedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	removed, err := c.SweepOrphans(context.Background(), 7*24*time.Hour, false)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	active, err := s.Queue.Active(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSweepOrphans_RemovesStalePendingReleases(t *testing.T) {
	c, s := newTestController()
	_, err := s.Pending.Add(context.Background(), store.PendingRelease{
		ContentKey: "movie:2", DiscoveredAt: time.Now().Add(-8 * 24 * time.Hour), ProcessAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	removed, err := c.SweepOrphans(context.Background(), 7*24*time.Hour, false)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	p, err := s.Pending.ByContentKey(context.Background(), "movie:2")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSweepOrphans_DryRunCountsWithoutDeleting(t *testing.T) {
	c, s := newTestController()
	_, err := s.Queue.Add(context.Background(), store.QueueItem{
		ContentKey: "movie:3", DownloadClientID: 99, Status: store.QueueStatusDownloading,
		AddedAt: time.Now(), UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	removed, err := c.SweepOrphans(context.Background(), 7*24*time.Hour, true)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	active, err := s.Queue.Active(context.Background())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
