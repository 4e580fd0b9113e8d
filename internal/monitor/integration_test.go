package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephage/cinephage/internal/download"
	"github.com/cinephage/cinephage/internal/external"
	"github.com/cinephage/cinephage/internal/external/mock"
	"github.com/cinephage/cinephage/internal/format"
	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search"
	"github.com/cinephage/cinephage/internal/specification"
	"github.com/cinephage/cinephage/internal/store"
	"github.com/cinephage/cinephage/internal/store/memstore"
)

// fixedIndexer wraps the spec's "every mediaType" gate so a scripted mock
// indexer matches both movie and episode criteria in these scenarios.
func fixedIndexer(id int64, name string) *mock.Indexer {
	return mock.NewIndexer(external.IndexerDefinition{
		ID: id, Name: name, BaseURL: "https://" + name + ".example.com",
		Enabled: true, SupportsType: func(string) bool { return true },
	})
}

func profileByName(name string) scoring.Profile {
	for _, p := range scoring.BuiltinProfiles() {
		if p.Name == name {
			return p
		}
	}
	panic("no such profile: " + name)
}

// newHarness wires a real Search Orchestrator and Download Controller over
// one mock indexer and one mock download client, against a fresh in-memory
// store — this is the stack the six end-to-end seed scenarios (spec §8) run
// against.
func newHarness(t *testing.T, indexer *mock.Indexer) (*search.Orchestrator, *download.Controller, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	scorer := scoring.NewScorer(format.Builtins())
	orchestrator := search.New(search.DefaultConfig(), []external.IndexerAdapter{indexer}, scorer, zerolog.Nop())

	client := mock.NewDownloadClient(external.DownloadClientDefinition{
		ID: 1, Name: "client-a", Protocol: external.ProtocolTorrent, Enabled: true,
	})
	controller := download.New(download.DefaultConfig(), []external.DownloadClientAdapter{client}, s.Queue, s.Pending, s.Blocklist, s.Library, &mock.Importer{}, zerolog.Nop())
	return orchestrator, controller, s
}

// Scenario 1: a clean WEB-DL release and a banned CAM release both surface;
// only the WEB-DL is grabbed.
func TestSeedScenario1_BansCAMGrabsWebDL(t *testing.T) {
	indexer := fixedIndexer(1, "indexerA")
	indexer.Enqueue([]external.Release{
		{Title: "Movie.2024.1080p.WEB-DL.DDP5.1-GROUP", InfoHash: "hash-webdl", SizeBytes: 4 << 30, Protocol: external.ProtocolTorrent, PublishDate: time.Now()},
		{Title: "Movie.2024.1080p.CAM-GROUP", InfoHash: "hash-cam", SizeBytes: int64(1.5 * (1 << 30)), Protocol: external.ProtocolTorrent, PublishDate: time.Now()},
	})
	orchestrator, controller, s := newHarness(t, indexer)

	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:1", MediaType: "movie", Title: "Movie", Year: 2024, Monitored: true, ProfileID: 1})

	deps := Deps{
		Library: s.Library, Cooldowns: s.Cooldown, Blocklist: s.Blocklist, History: s.History,
		Searcher: orchestrator, Grabber: controller, Profiles: func(int64) scoring.Profile { return profileByName("Best") },
		Scorer: scoring.NewScorer(format.Builtins()), Log: zerolog.Nop(), NewEpisodeWindowHours: 24,
	}

	_, grabbed, err := runMonitoringTask(context.Background(), specification.TaskMissingContent, deps, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, grabbed)

	item, err := s.Queue.ByContentKey(context.Background(), "movie:1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Contains(t, item.Title, "WEB-DL")
}

// Scenario 2: a REMUX candidate beats an existing WEB-DL by a wide margin
// and is accepted as an upgrade.
func TestSeedScenario2_UpgradeAcceptedOnBigImprovement(t *testing.T) {
	indexer := fixedIndexer(1, "indexerA")
	indexer.Enqueue([]external.Release{
		{Title: "Movie.2024.2160p.UHD.BluRay.REMUX.TrueHD.Atmos-GROUP", InfoHash: "hash-remux", SizeBytes: 60 << 30, Protocol: external.ProtocolTorrent, PublishDate: time.Now()},
	})
	orchestrator, controller, s := newHarness(t, indexer)

	profile := profileByName("Best")
	scorer := scoring.NewScorer(format.Builtins())
	existingScore := scorer.Score("Movie.2024.1080p.WEB-DL-GROUP", 5<<30, profile, scoring.Context{MediaType: scoring.MediaTypeMovie})

	s.SeedLibraryItem(store.LibraryItem{
		ContentKey: "movie:2", MediaType: "movie", Title: "Movie", Year: 2024, Monitored: true, ProfileID: 1,
		HasFile: true, ExistingTitle: "Movie.2024.1080p.WEB-DL-GROUP", ExistingScore: existingScore.TotalScore,
	})

	deps := Deps{
		Library: s.Library, Cooldowns: s.Cooldown, Blocklist: s.Blocklist, History: s.History,
		Searcher: orchestrator, Grabber: controller, Profiles: func(int64) scoring.Profile { return profile },
		Scorer: scorer, Log: zerolog.Nop(), NewEpisodeWindowHours: 24,
	}

	_, grabbed, err := runMonitoringTask(context.Background(), specification.TaskUpgrade, deps, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, grabbed)
}

// Scenario 3: the reverse direction — a 1080p WEB-DL candidate never
// outscores an existing 2160p REMUX, so no upgrade happens.
func TestSeedScenario3_DowngradeRejected(t *testing.T) {
	indexer := fixedIndexer(1, "indexerA")
	indexer.Enqueue([]external.Release{
		{Title: "Movie.2024.1080p.WEB-DL-GROUP", InfoHash: "hash-webdl", SizeBytes: 5 << 30, Protocol: external.ProtocolTorrent, PublishDate: time.Now()},
	})
	orchestrator, controller, s := newHarness(t, indexer)

	profile := profileByName("Best")
	scorer := scoring.NewScorer(format.Builtins())
	existingScore := scorer.Score("Movie.2024.2160p.UHD.BluRay.REMUX.TrueHD.Atmos-GROUP", 60<<30, profile, scoring.Context{MediaType: scoring.MediaTypeMovie})

	s.SeedLibraryItem(store.LibraryItem{
		ContentKey: "movie:3", MediaType: "movie", Title: "Movie", Year: 2024, Monitored: true, ProfileID: 1,
		HasFile: true, ExistingTitle: "Movie.2024.2160p.UHD.BluRay.REMUX.TrueHD.Atmos-GROUP", ExistingScore: existingScore.TotalScore,
	})

	deps := Deps{
		Library: s.Library, Cooldowns: s.Cooldown, Blocklist: s.Blocklist, History: s.History,
		Searcher: orchestrator, Grabber: controller, Profiles: func(int64) scoring.Profile { return profile },
		Scorer: scorer, Log: zerolog.Nop(), NewEpisodeWindowHours: 24,
	}

	_, grabbed, err := runMonitoringTask(context.Background(), specification.TaskUpgrade, deps, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, grabbed)

	queued, err := s.Queue.ByContentKey(context.Background(), "movie:3")
	require.NoError(t, err)
	assert.Nil(t, queued, "a lower-scoring candidate must never be grabbed")
}

// Scenario 4: once a profile's cutoff is already met, the cutoff-unmet task
// never grabs, even against a nominally higher-scoring candidate.
func TestSeedScenario4_AlreadyAtCutoffNeverGrabs(t *testing.T) {
	indexer := fixedIndexer(1, "indexerA")
	indexer.Enqueue([]external.Release{
		{Title: "Movie.2024.2160p.UHD.BluRay.REMUX.TrueHD.Atmos-GROUP", InfoHash: "hash-remux", SizeBytes: 60 << 30, Protocol: external.ProtocolTorrent, PublishDate: time.Now()},
	})
	orchestrator, controller, s := newHarness(t, indexer)

	profile := profileByName("Best")
	profile.UpgradeUntilScore = 800
	scorer := scoring.NewScorer(format.Builtins())
	existingScore := scorer.Score("Movie.2024.1080p.BluRay.DTS-HD.MA-GROUP", 15<<30, profile, scoring.Context{MediaType: scoring.MediaTypeMovie})
	require.GreaterOrEqual(t, existingScore.TotalScore, profile.UpgradeUntilScore, "fixture must already be at or above cutoff")

	s.SeedLibraryItem(store.LibraryItem{
		ContentKey: "movie:4", MediaType: "movie", Title: "Movie", Year: 2024, Monitored: true, ProfileID: 1,
		HasFile: true, ExistingTitle: "Movie.2024.1080p.BluRay.DTS-HD.MA-GROUP", ExistingScore: existingScore.TotalScore,
	})

	deps := Deps{
		Library: s.Library, Cooldowns: s.Cooldown, Blocklist: s.Blocklist, History: s.History,
		Searcher: orchestrator, Grabber: controller, Profiles: func(int64) scoring.Profile { return profile },
		Scorer: scorer, Log: zerolog.Nop(), NewEpisodeWindowHours: 24,
	}

	_, grabbed, err := runMonitoringTask(context.Background(), specification.TaskCutoffUnmet, deps, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, grabbed)
}

// Scenario 5 (rate-limit respect across concurrent searches) is covered at
// the unit level in internal/search (the orchestrator's wait and shared
// host bucket) and internal/search/ratelimit (the sliding-window bucket).

// Scenario 6: a delayed grab is held pending, then a better release
// supersedes it before the delay elapses; the superseded row is never
// returned as due for dispatch.
func TestSeedScenario6_SupersededPendingReleaseNeverDispatches(t *testing.T) {
	_, controller, s := newHarness(t, fixedIndexer(1, "indexerA"))

	processAt := time.Now().Add(60 * time.Minute)
	delay := &specification.DelayDecision{ShouldDelay: true, ProcessAt: processAt}

	first := search.Result{Title: "Movie.2024.1080p.WEB-DL-GROUP", Protocol: scoring.ProtocolTorrent, SizeBytes: 5 << 30}
	first.Score.TotalScore = 600
	require.NoError(t, controller.Grab(context.Background(), "movie:6", first, profileByName("Best"), delay))

	second := search.Result{Title: "Movie.2024.2160p.UHD.BluRay.REMUX-GROUP", Protocol: scoring.ProtocolTorrent, SizeBytes: 60 << 30}
	second.Score.TotalScore = 2000
	require.NoError(t, controller.Grab(context.Background(), "movie:6", second, profileByName("Best"), delay))

	p, err := s.Pending.ByContentKey(context.Background(), "movie:6")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, second.Title, p.Title, "the later, higher-scoring release must supersede the first")

	due, err := s.Pending.DueBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, due, "nothing is due before the delay window elapses")

	due, err = s.Pending.DueBefore(context.Background(), processAt.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, second.Title, due[0].Title)
}
