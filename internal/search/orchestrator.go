// Package search implements the Search Orchestrator (spec §4.4): fans a
// normalized query out to every capable, enabled indexer under a bounded
// concurrency cap and a two-tier (per-indexer, per-host) sliding-window
// rate limit, then scores, deduplicates, ranks, and caches the result.
//
// Grounded on the teacher's internal/indexer/search/aggregator.go for the
// dedup/sort shape and internal/scheduler/tasks/autosearch.go for the
// fan-out/error-isolation shape, replaced here with golang.org/x/sync/errgroup
// for the bounded parallel fan-out and github.com/avast/retry-go for
// per-indexer transient-error retries.
package search

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinephage/cinephage/internal/external"
	"github.com/cinephage/cinephage/internal/release"
	"github.com/cinephage/cinephage/internal/scoring"
	"github.com/cinephage/cinephage/internal/search/ratelimit"
)

// Config tunes the orchestrator's fan-out, retry, and rate-limit behavior.
type Config struct {
	MaxConcurrentSearches int // default 8
	MaxRetries            uint
	RetryBaseDelay        time.Duration
	CacheCapacity         int

	// IndexerRateLimit and HostRateLimit override the sliding-window
	// bucket each indexer/host is checked against (spec §4.4). A zero
	// value falls back to ratelimit.DefaultIndexerConfig/DefaultHostConfig.
	IndexerRateLimit ratelimit.Config
	HostRateLimit    ratelimit.Config
}

// DefaultConfig returns the spec's defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentSearches: 8,
		MaxRetries:            2,
		RetryBaseDelay:        200 * time.Millisecond,
		CacheCapacity:         256,
		IndexerRateLimit:      ratelimit.DefaultIndexerConfig(),
		HostRateLimit:         ratelimit.DefaultHostConfig(),
	}
}

// Orchestrator runs searches across a set of indexer adapters.
type Orchestrator struct {
	cfg            Config
	indexers       []external.IndexerAdapter
	scorer         *scoring.Scorer
	indexerLimiter *ratelimit.Limiter
	hostLimiter    *ratelimit.Limiter
	cache          *ResultCache
	log            zerolog.Logger
}

// New builds an Orchestrator over the given indexer adapters.
func New(cfg Config, indexers []external.IndexerAdapter, scorer *scoring.Scorer, log zerolog.Logger) *Orchestrator {
	if cfg.MaxConcurrentSearches <= 0 {
		cfg.MaxConcurrentSearches = 8
	}
	indexerRL := cfg.IndexerRateLimit
	if indexerRL.Requests <= 0 {
		indexerRL = ratelimit.DefaultIndexerConfig()
	}
	hostRL := cfg.HostRateLimit
	if hostRL.Requests <= 0 {
		hostRL = ratelimit.DefaultHostConfig()
	}
	return &Orchestrator{
		cfg:            cfg,
		indexers:       indexers,
		scorer:         scorer,
		indexerLimiter: ratelimit.New(indexerRL),
		hostLimiter:    ratelimit.New(hostRL),
		cache:          NewResultCache(cfg.CacheCapacity),
		log:            log.With().Str("component", "search_orchestrator").Logger(),
	}
}

// Response is what Search returns to a caller.
type Response struct {
	Results  []Result
	Outcomes []IndexerOutcome
	FromCache bool
}

// Search selects capable, enabled indexers, fans out within rate-limit and
// concurrency bounds, then scores/dedupes/ranks the merged results
// (spec §4.4). A cache hit short-circuits the fan-out entirely.
func (o *Orchestrator) Search(ctx context.Context, criteria Criteria, profile scoring.Profile, scoringCtx scoring.Context) (Response, error) {
	selected := o.selectIndexers(criteria)
	ids := make([]int64, 0, len(selected))
	for _, ad := range selected {
		ids = append(ids, ad.Definition().ID)
	}
	key := CacheKey(criteria, ids, profile.ID)

	if cached, ok := o.cache.Get(key); ok {
		return Response{Results: cached, FromCache: true}, nil
	}

	outcomes := make([]IndexerOutcome, len(selected))
	allRaw := make([][]external.Release, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentSearches)

	for i, adapter := range selected {
		i, adapter := i, adapter
		g.Go(func() error {
			def := adapter.Definition()
			outcomes[i] = IndexerOutcome{IndexerID: def.ID, IndexerName: def.Name}

			hostKey := BaseDomain(def.BaseURL)
			if err := o.waitForRateLimit(gctx, indexerKey(def.ID), hostKey); err != nil {
				outcomes[i].Err = err
				outcomes[i].ErrorClass = classify(err)
				return nil
			}

			releases, err := o.searchOne(gctx, adapter, criteria)

			if err != nil {
				outcomes[i].Err = err
				outcomes[i].ErrorClass = classify(err)
				o.log.Warn().Err(err).Str("indexer", def.Name).Msg("indexer search failed")
				return nil // isolate: one indexer's failure never aborts the others
			}
			outcomes[i].ResultCount = len(releases)
			allRaw[i] = releases
			return nil
		})
	}
	// errgroup bodies never return non-nil above, so this can't fail; ctx
	// cancellation still propagates to in-flight adapter calls.
	_ = g.Wait()

	merged := make([]Result, 0)
	anyOK := false
	for _, raw := range allRaw {
		if len(raw) > 0 {
			anyOK = true
		}
		for _, r := range raw {
			attrs := release.Parse(r.Title)
			scored := o.scorer.ScoreAttributes(attrs, r.SizeBytes, profile, scoringCtx)
			merged = append(merged, externalToResult(r, scored, attrs))
		}
	}

	merged = dedupe(merged)
	rank(merged)

	outcome := OutcomeEmpty
	if anyOK {
		outcome = OutcomeOK
	}
	for _, oc := range outcomes {
		if oc.Err != nil {
			outcome = OutcomeError
			break
		}
	}
	o.cache.Put(key, merged, outcome)

	return Response{Results: merged, Outcomes: outcomes}, nil
}

// waitForRateLimit implements spec §4.4's two-tier wait contract: "before
// each request the orchestrator calls both limiters, waits the longer of
// the two, then records the request on both." Requests that exceed a
// window sleep rather than get dropped; only context cancellation aborts
// the wait.
func (o *Orchestrator) waitForRateLimit(ctx context.Context, indexerID, hostKey string) error {
	wait := o.indexerLimiter.GetWaitTime(indexerID)
	if hostWait := o.hostLimiter.GetWaitTime(hostKey); hostWait > wait {
		wait = hostWait
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	o.indexerLimiter.RecordRequest(indexerID)
	o.hostLimiter.RecordRequest(hostKey)
	return nil
}

// searchOne retries transient failures with exponential backoff
// (spec §7: "network and rate-limit classes retry with backoff where
// idempotent").
func (o *Orchestrator) searchOne(ctx context.Context, adapter external.IndexerAdapter, criteria Criteria) ([]external.Release, error) {
	var releases []external.Release
	err := retry.Do(
		func() error {
			r, err := adapter.Search(ctx, criteria.toExternal())
			if err != nil {
				return err
			}
			releases = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(o.cfg.MaxRetries+1),
		retry.Delay(o.cfg.RetryBaseDelay),
		retry.RetryIf(func(err error) bool {
			var classified *external.ClassifiedError
			if ok := asClassified(err, &classified); ok {
				return classified.IsTransient()
			}
			return false
		}),
		retry.LastErrorOnly(true),
	)
	return releases, err
}

func asClassified(err error, target **external.ClassifiedError) bool {
	c, ok := err.(*external.ClassifiedError)
	if !ok {
		return false
	}
	*target = c
	return true
}

// selectIndexers filters to enabled indexers that declare support for the
// requested media type (spec §4.4).
func (o *Orchestrator) selectIndexers(criteria Criteria) []external.IndexerAdapter {
	selected := make([]external.IndexerAdapter, 0, len(o.indexers))
	for _, ad := range o.indexers {
		def := ad.Definition()
		if !def.Enabled {
			continue
		}
		if def.SupportsType != nil && !def.SupportsType(criteria.MediaType) {
			continue
		}
		selected = append(selected, ad)
	}
	return selected
}

// SweepCache evicts expired cache entries; intended for periodic invocation
// by the Background-Service framework (spec §4.7).
func (o *Orchestrator) SweepCache() int { return o.cache.Sweep() }

func indexerKey(id int64) string { return "indexer:" + itoa64(id) }

func itoa64(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
