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
	"github.com/cinephage/cinephage/internal/store"
	"github.com/cinephage/cinephage/internal/store/memstore"
)

func addDuePending(t *testing.T, s *memstore.Store, contentKey string) int64 {
	t.Helper()
	id, err := s.Pending.Add(context.Background(), store.PendingRelease{
		ContentKey:   contentKey,
		Title:        "Movie.2020.1080p",
		Protocol:     string(scoring.ProtocolTorrent),
		MagnetURL:    "magnet:?xt=fake",
		Score:        10,
		DiscoveredAt: time.Now(),
		ProcessAt:    time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	return id
}

func TestProcessDue_DispatchesStillValidRelease(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	s := memstore.New()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:1", MediaType: "movie", Monitored: true})
	c := New(DefaultConfig(), []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, &mock.Importer{}, zerolog.Nop())
	addDuePending(t, s, "movie:1")

	considered, grabbed, err := c.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, considered)
	assert.Equal(t, 1, grabbed)

	item, err := s.Queue.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.NotNil(t, item)
}

func TestProcessDue_ExpiresWhenContentNoLongerExists(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	s := memstore.New()
	c := New(DefaultConfig(), []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, &mock.Importer{}, zerolog.Nop())
	id := addDuePending(t, s, "movie:missing")

	considered, grabbed, err := c.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, considered)
	assert.Equal(t, 0, grabbed)

	p, err := s.Pending.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, store.PendingStatusExpired, p.Status)
}

func TestProcessDue_ExpiresWhenNoLongerMonitored(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	s := memstore.New()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:1", MediaType: "movie", Monitored: false})
	c := New(DefaultConfig(), []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, &mock.Importer{}, zerolog.Nop())
	id := addDuePending(t, s, "movie:1")

	_, grabbed, err := c.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, grabbed)

	p, err := s.Pending.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.PendingStatusExpired, p.Status)
}

func TestProcessDue_ExpiresWhenAlreadyHasFile(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	s := memstore.New()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:1", MediaType: "movie", Monitored: true, HasFile: true})
	c := New(DefaultConfig(), []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, &mock.Importer{}, zerolog.Nop())
	id := addDuePending(t, s, "movie:1")

	_, grabbed, err := c.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, grabbed)

	p, err := s.Pending.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.PendingStatusExpired, p.Status)
}

func TestProcessDue_ExpiresWhenNowBlocklisted(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	s := memstore.New()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:1", MediaType: "movie", Monitored: true})
	c := New(DefaultConfig(), []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, &mock.Importer{}, zerolog.Nop())
	id := addDuePending(t, s, "movie:1")

	_, err := s.Blocklist.Add(context.Background(), store.BlocklistEntry{
		ContentKey: "movie:1", Title: "Movie.2020.1080p", Reason: store.BlocklistReasonDownloadFailed, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	_, grabbed, err := c.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, grabbed)

	p, err := s.Pending.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.PendingStatusExpired, p.Status)
}

func TestProcessDue_ExpiresPastMaxAgeWithoutDispatch(t *testing.T) {
	client := mock.NewDownloadClient(external.DownloadClientDefinition{ID: 1, Protocol: external.ProtocolTorrent, Enabled: true})
	s := memstore.New()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:1", MediaType: "movie", Monitored: true})
	cfg := DefaultConfig()
	cfg.PendingMaxAge = time.Hour
	c := New(cfg, []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, &mock.Importer{}, zerolog.Nop())

	id, err := s.Pending.Add(context.Background(), store.PendingRelease{
		ContentKey: "movie:1", Title: "Movie.2020.1080p", Protocol: string(scoring.ProtocolTorrent),
		DiscoveredAt: time.Now().Add(-2 * time.Hour), ProcessAt: time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)

	_, grabbed, err := c.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, grabbed)

	p, err := s.Pending.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.PendingStatusExpired, p.Status)
}
