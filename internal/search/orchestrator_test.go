package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinephage/cinephage/internal/external"
	"github.com/cinephage/cinephage/internal/format"
	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search/ratelimit"
)

type fakeAdapter struct {
	def     external.IndexerDefinition
	mu      sync.Mutex
	calls   int
	results []external.Release
}

func (f *fakeAdapter) Definition() external.IndexerDefinition { return f.def }

func (f *fakeAdapter) Search(ctx context.Context, criteria external.Criteria) ([]external.Release, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.results, nil
}

func (f *fakeAdapter) Download(ctx context.Context, r external.Release) (external.DownloadPayload, error) {
	return external.DownloadPayload{}, nil
}

func newFakeAdapter(id int64, name, baseURL string) *fakeAdapter {
	return &fakeAdapter{
		def: external.IndexerDefinition{
			ID: id, Name: name, BaseURL: baseURL, Enabled: true,
			SupportsType: func(string) bool { return true },
		},
		results: []external.Release{
			{Title: name + ".Release.1080p.WEB-DL", IndexerID: id, IndexerName: name, SizeBytes: 4 << 30, Protocol: external.ProtocolTorrent, PublishDate: time.Now()},
		},
	}
}

func testOrchestrator(indexers []external.IndexerAdapter) *Orchestrator {
	scorer := scoring.NewScorer(format.Builtins())
	return New(DefaultConfig(), indexers, scorer, zerolog.Nop())
}

func TestSearch_MergesResultsFromMultipleIndexers(t *testing.T) {
	a := newFakeAdapter(1, "alpha", "https://tracker-a.example.com")
	b := newFakeAdapter(2, "beta", "https://tracker-b.example.com")
	o := testOrchestrator([]external.IndexerAdapter{a, b})

	resp, err := o.Search(context.Background(), Criteria{MediaType: "movie"}, scoring.BuiltinProfiles()[0], scoring.Context{MediaType: scoring.MediaTypeMovie})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearch_CacheHitSkipsIndexers(t *testing.T) {
	a := newFakeAdapter(1, "alpha", "https://tracker-a.example.com")
	o := testOrchestrator([]external.IndexerAdapter{a})
	criteria := Criteria{MediaType: "movie"}
	profile := scoring.BuiltinProfiles()[0]
	sc := scoring.Context{MediaType: scoring.MediaTypeMovie}

	_, err := o.Search(context.Background(), criteria, profile, sc)
	require.NoError(t, err)
	require.Equal(t, 1, a.calls)

	resp, err := o.Search(context.Background(), criteria, profile, sc)
	require.NoError(t, err)
	assert.True(t, resp.FromCache)
	assert.Equal(t, 1, a.calls, "cache hit must not re-query the indexer")
}

func TestSearch_OneIndexerFailureDoesNotAbortOthers(t *testing.T) {
	good := newFakeAdapter(1, "good", "https://good.example.com")
	bad := &fakeAdapter{
		def: external.IndexerDefinition{ID: 2, Name: "bad", BaseURL: "https://bad.example.com", Enabled: true, SupportsType: func(string) bool { return true }},
	}
	badAdapter := &erroringAdapter{fakeAdapter: bad}
	o := testOrchestrator([]external.IndexerAdapter{good, badAdapter})

	resp, err := o.Search(context.Background(), Criteria{MediaType: "movie"}, scoring.BuiltinProfiles()[0], scoring.Context{MediaType: scoring.MediaTypeMovie})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	require.Len(t, resp.Outcomes, 2)
}

type erroringAdapter struct {
	*fakeAdapter
}

func (e *erroringAdapter) Search(ctx context.Context, criteria external.Criteria) ([]external.Release, error) {
	return nil, &external.ClassifiedError{Class: external.ErrorClassParse, Err: assertErr}
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }

// TestWaitForRateLimit_WaitsRatherThanSkipping is the orchestrator-level half
// of seed scenario #5 (spec §8: "extra requests waited"): once a bucket is
// exhausted, waitForRateLimit blocks for roughly the remaining window
// instead of returning immediately so the caller can skip the request.
func TestWaitForRateLimit_WaitsRatherThanSkipping(t *testing.T) {
	period := 80 * time.Millisecond
	o := New(Config{
		IndexerRateLimit: ratelimit.Config{Requests: 1, Period: period},
		HostRateLimit:    ratelimit.Config{Requests: 100, Period: time.Minute},
	}, nil, scoring.NewScorer(format.Builtins()), zerolog.Nop())

	o.indexerLimiter.RecordRequest("indexer:1")

	start := time.Now()
	err := o.waitForRateLimit(context.Background(), "indexer:1", "host-a")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, period/2, "must actually wait out most of the window, not skip")
	assert.Equal(t, 1, o.indexerLimiter.Count("indexer:1"), "the waited request is recorded; the first one has left the window")
}

// TestWaitForRateLimit_AbortsOnContextCancellation ensures a long wait can
// still be interrupted by caller cancellation rather than blocking forever.
func TestWaitForRateLimit_AbortsOnContextCancellation(t *testing.T) {
	o := New(Config{
		IndexerRateLimit: ratelimit.Config{Requests: 1, Period: time.Hour},
		HostRateLimit:    ratelimit.Config{Requests: 100, Period: time.Minute},
	}, nil, scoring.NewScorer(format.Builtins()), zerolog.Nop())
	o.indexerLimiter.RecordRequest("indexer:1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := o.waitForRateLimit(ctx, "indexer:1", "host-a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestHostRateLimit_SubdomainsShareBucket is the host-level half of seed
// scenario #5 (spec §8): two indexers on subdomains of the same base domain
// must never jointly exceed the host limit in any sliding window.
func TestHostRateLimit_SubdomainsShareBucket(t *testing.T) {
	limiter := ratelimit.New(ratelimit.DefaultHostConfig())
	var allowed int64

	hosts := []string{"https://a.example.com/announce", "https://b.example.com/announce"}
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		host := hosts[i%2]
		go func(host string) {
			defer wg.Done()
			key := BaseDomain(host)
			if limiter.CanProceed(key) {
				limiter.RecordRequest(key)
				atomic.AddInt64(&allowed, 1)
			}
		}(host)
	}
	wg.Wait()

	assert.LessOrEqual(t, allowed, int64(30+5)) // requests + burst
	assert.Equal(t, "example.com", BaseDomain(hosts[0]))
	assert.Equal(t, "example.com", BaseDomain(hosts[1]))
}
