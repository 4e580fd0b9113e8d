package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephage/cinephage/internal/format"
	"github.com/cinephage/cinephage/internal/release"
	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search"
	"github.com/cinephage/cinephage/internal/specification"
	"github.com/cinephage/cinephage/internal/store"
	"github.com/cinephage/cinephage/internal/store/memstore"
)

type fakeSearcher struct {
	results []search.Result
}

func (f fakeSearcher) Search(ctx context.Context, criteria search.Criteria, profile scoring.Profile, scoringCtx scoring.Context) (search.Response, error) {
	return search.Response{Results: f.results}, nil
}

type fakeGrabber struct {
	grabbed []string
}

func (f *fakeGrabber) Grab(ctx context.Context, contentKey string, result search.Result, profile scoring.Profile, delay *specification.DelayDecision) error {
	f.grabbed = append(f.grabbed, contentKey)
	return nil
}

func bestProfile() scoring.Profile {
	for _, p := range scoring.BuiltinProfiles() {
		if p.Name == "Best" {
			return p
		}
	}
	panic("no Best profile")
}

func TestRunMonitoringTask_MissingContentGrabsAcceptedCandidate(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	s.SeedLibraryItem(store.LibraryItem{
		ContentKey: "movie:1", MediaType: "movie", Title: "Example", Monitored: true,
		HasFile: false, ProfileID: 1,
	})

	scorer := scoring.NewScorer(format.Builtins())
	profile := bestProfile()
	attrs := release.Parse("Example.2024.1080p.WEB-DL.x264-GROUP")
	scored := scorer.ScoreAttributes(attrs, 5<<30, profile, scoring.Context{MediaType: scoring.MediaTypeMovie})

	grabber := &fakeGrabber{}
	deps := Deps{
		Library:   s.Library,
		Cooldowns: s.Cooldown,
		Blocklist: s.Blocklist,
		History:   s.History,
		Searcher: fakeSearcher{results: []search.Result{
			{Title: "Example.2024.1080p.WEB-DL.x264-GROUP", SizeBytes: 5 << 30, Attributes: attrs, Score: scored, Protocol: scoring.ProtocolTorrent},
		}},
		Grabber:               grabber,
		Profiles:              func(int64) scoring.Profile { return profile },
		Scorer:                scorer,
		Log:                   zerolog.Nop(),
		NewEpisodeWindowHours: 24,
	}

	considered, grabbed, err := runMonitoringTask(ctx, specification.TaskMissingContent, deps, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, considered)
	assert.Equal(t, 1, grabbed)
	assert.Equal(t, []string{"movie:1"}, grabber.grabbed)
}

func TestRunMonitoringTask_NotMonitoredSkipsSearch(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:2", MediaType: "movie", Monitored: false, ProfileID: 1})

	profile := bestProfile()
	searcher := fakeSearcher{}
	deps := Deps{
		Library: s.Library, Cooldowns: s.Cooldown, Blocklist: s.Blocklist, History: s.History,
		Searcher: searcher, Grabber: &fakeGrabber{}, Profiles: func(int64) scoring.Profile { return profile },
		Scorer: scoring.NewScorer(format.Builtins()), Log: zerolog.Nop(),
	}

	considered, grabbed, err := runMonitoringTask(ctx, specification.TaskMissingContent, deps, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, considered)
	assert.Equal(t, 0, grabbed)
}

func TestRunMonitoringTask_CooldownSkipsReSearch(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	s.SeedLibraryItem(store.LibraryItem{ContentKey: "movie:3", MediaType: "movie", Monitored: true, HasFile: false, ProfileID: 1})
	require.NoError(t, s.Cooldown.Set(ctx, store.SearchCooldown{ContentKey: "movie:3", NextSearchAt: time.Now().Add(time.Hour)}))

	calls := 0
	deps := Deps{
		Library: s.Library, Cooldowns: s.Cooldown, Blocklist: s.Blocklist, History: s.History,
		Searcher: searchFunc(func() { calls++ }), Grabber: &fakeGrabber{},
		Profiles: func(int64) scoring.Profile { return bestProfile() },
		Scorer:   scoring.NewScorer(format.Builtins()), Log: zerolog.Nop(),
	}

	_, grabbed, err := runMonitoringTask(ctx, specification.TaskMissingContent, deps, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, grabbed)
	assert.Equal(t, 0, calls, "cooldown must prevent the search from ever running")
}

type searchFunc func()

func (f searchFunc) Search(ctx context.Context, criteria search.Criteria, profile scoring.Profile, scoringCtx scoring.Context) (search.Response, error) {
	f()
	return search.Response{}, nil
}
