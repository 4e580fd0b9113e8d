package search

import (
	"container/list"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache TTLs differentiated by outcome (spec §4.4).
const (
	cacheTTLOK    = 5 * time.Minute
	cacheTTLEmpty = 60 * time.Second
)

// CacheKey hashes normalized search criteria together with the enabled
// indexer set and any profile-impacting fields, so that two searches that
// would hit a different set of indexers or score differently never share a
// cache entry (spec §4.4). Grounded on the mutex+map idiom already used by
// internal/search/ratelimit.Limiter since no pack repo carries a maintained
// LRU-with-TTL library.
func CacheKey(criteria Criteria, enabledIndexerIDs []int64, profileID int64) string {
	h := xxhash.New()
	_, _ = h.WriteString(criteria.cacheKeyFields())
	_, _ = h.WriteString("|profile=")
	_, _ = h.WriteString(strconv.FormatInt(profileID, 10))
	_, _ = h.WriteString("|indexers=")
	for _, id := range sortedCopy(enabledIndexerIDs) {
		_, _ = h.WriteString(strconv.FormatInt(id, 10))
		_, _ = h.WriteString(",")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func sortedCopy(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

type cacheEntry struct {
	key       string
	results   []Result
	expiresAt time.Time
}

// ResultCache is a bounded, TTL-expiring LRU of ranked search results, keyed
// by CacheKey. A failed search is never cached (spec §4.4: "no cache for
// error") — callers simply don't call Put for an error outcome.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	nowFn    func() time.Time
}

// NewResultCache creates a cache bounded to capacity entries.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &ResultCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		nowFn:    time.Now,
	}
}

// Get returns a cached result set if present and unexpired.
func (c *ResultCache) Get(key string) ([]Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.nowFn().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.results, true
}

// Put stores a result set under key with a TTL determined by outcome.
// OutcomeError is a no-op: errors are never cached.
func (c *ResultCache) Put(key string, results []Result, outcome Outcome) {
	if outcome == OutcomeError {
		return
	}
	ttl := cacheTTLOK
	if outcome == OutcomeEmpty {
		ttl = cacheTTLEmpty
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).results = results
		el.Value.(*cacheEntry).expiresAt = c.nowFn().Add(ttl)
		c.order.MoveToFront(el)
		return
	}

	entry := &cacheEntry{key: key, results: results, expiresAt: c.nowFn().Add(ttl)}
	el := c.order.PushFront(entry)
	c.entries[key] = el

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Sweep evicts every expired entry. Intended to be called periodically by
// the Background-Service framework (spec §4.7).
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	evicted := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		entry := el.Value.(*cacheEntry)
		if now.After(entry.expiresAt) {
			c.order.Remove(el)
			delete(c.entries, entry.key)
			evicted++
		}
		el = prev
	}
	return evicted
}

// Len reports the current number of cached entries, for diagnostics/tests.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
