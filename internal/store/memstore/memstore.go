// Package memstore is the in-memory reference implementation of the
// internal/store interfaces, used for tests and as the composition root's
// default when no external database is wired (spec §6 Non-goal: no
// specific on-disk engine is mandated by this module).
//
// Grounded on the teacher's internal/metadata/cache.go mutex-guarded map
// idiom, generalized from a single TTL cache to one guarded map per store
// interface.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cinephage/cinephage/internal/store"
)

// db holds every map the repo types below share. Kept unexported so the
// per-interface repo types are the only public surface, one per
// internal/store interface.
type db struct {
	mu sync.RWMutex

	library     map[string]store.LibraryItem
	queue       map[int64]store.QueueItem
	pending     map[int64]store.PendingRelease
	blocklist   map[int64]store.BlocklistEntry
	cooldowns   map[string]store.SearchCooldown
	taskHistory map[int64]store.TaskHistory
	monHistory  []store.MonitoringHistory
	settings    map[string]string

	nextQueueID   int64
	nextPendingID int64
	nextBlockID   int64
	nextTaskID    int64
}

func newDB() *db {
	return &db{
		library:     make(map[string]store.LibraryItem),
		queue:       make(map[int64]store.QueueItem),
		pending:     make(map[int64]store.PendingRelease),
		blocklist:   make(map[int64]store.BlocklistEntry),
		cooldowns:   make(map[string]store.SearchCooldown),
		taskHistory: make(map[int64]store.TaskHistory),
		settings:    make(map[string]string),
	}
}

// Store bundles one in-memory implementation of every internal/store
// interface over a shared map set, mirroring how the teacher's
// database.Manager bundled per-table repositories behind one handle.
type Store struct {
	*db
	Library     *LibraryRepo
	Queue       *QueueRepo
	Pending     *PendingRepo
	Blocklist   *BlocklistRepo
	Cooldown    *CooldownRepo
	History     *HistoryRepo
	Settings    *SettingsRepo
}

// New creates an empty in-memory store with every repo wired to the same
// underlying map set.
func New() *Store {
	d := newDB()
	return &Store{
		db:        d,
		Library:   &LibraryRepo{d},
		Queue:     &QueueRepo{d},
		Pending:   &PendingRepo{d},
		Blocklist: &BlocklistRepo{d},
		Cooldown:  &CooldownRepo{d},
		History:   &HistoryRepo{d},
		Settings:  &SettingsRepo{d},
	}
}

// SeedLibraryItem inserts or overwrites a library item, for test setup and
// for external-collaborator sync jobs outside this module's scope.
func (s *Store) SeedLibraryItem(item store.LibraryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.library[item.ContentKey] = item
}

// LibraryRepo implements store.LibraryStore.
type LibraryRepo struct{ *db }

var _ store.LibraryStore = (*LibraryRepo)(nil)

func (r *LibraryRepo) MonitoredItems(ctx context.Context, mediaType string, limit int) ([]store.LibraryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.library))
	for k := range r.library {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]store.LibraryItem, 0)
	for _, k := range keys {
		item := r.library[k]
		if item.MediaType != mediaType {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *LibraryRepo) GetByContentKey(ctx context.Context, contentKey string) (*store.LibraryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.library[contentKey]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *LibraryRepo) RecentlyAired(ctx context.Context, since, until time.Time, limit int) ([]store.LibraryItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]store.LibraryItem, 0)
	for _, item := range r.library {
		if item.AirDate == nil {
			continue
		}
		if item.AirDate.Before(since) || item.AirDate.After(until) {
			continue
		}
		out = append(out, item)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// QueueRepo implements store.QueueStore.
type QueueRepo struct{ *db }

var _ store.QueueStore = (*QueueRepo)(nil)

func (r *QueueRepo) Add(ctx context.Context, item store.QueueItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextQueueID++
	item.ID = r.nextQueueID
	r.queue[item.ID] = item
	return item.ID, nil
}

func (r *QueueRepo) Update(ctx context.Context, item store.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queue[item.ID] = item
	return nil
}

func (r *QueueRepo) Get(ctx context.Context, id int64) (*store.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.queue[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *QueueRepo) ByContentKey(ctx context.Context, contentKey string) (*store.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.queue {
		if item.ContentKey == contentKey {
			copied := item
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *QueueRepo) Active(ctx context.Context) ([]store.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.QueueItem, 0)
	for _, item := range r.queue {
		if item.Status != store.QueueStatusCompleted && item.Status != store.QueueStatusFailed {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *QueueRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.queue, id)
	return nil
}

// PendingRepo implements store.PendingReleaseStore.
type PendingRepo struct{ *db }

var _ store.PendingReleaseStore = (*PendingRepo)(nil)

func (r *PendingRepo) Add(ctx context.Context, p store.PendingRelease) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPendingID++
	p.ID = r.nextPendingID
	if p.Status == "" {
		p.Status = store.PendingStatusPending
	}
	r.pending[p.ID] = p
	return p.ID, nil
}

func (r *PendingRepo) Update(ctx context.Context, p store.PendingRelease) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[p.ID]; !ok {
		return fmt.Errorf("pending release %d not found", p.ID)
	}
	r.pending[p.ID] = p
	return nil
}

func (r *PendingRepo) Get(ctx context.Context, id int64) (*store.PendingRelease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pending[id]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func (r *PendingRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
	return nil
}

// DueBefore returns only rows still in the pending state; grabbed,
// superseded, and expired rows are terminal and never redispatched.
func (r *PendingRepo) DueBefore(ctx context.Context, at time.Time) ([]store.PendingRelease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.PendingRelease, 0)
	for _, p := range r.pending {
		if p.Status == store.PendingStatusPending && !p.ProcessAt.After(at) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcessAt.Before(out[j].ProcessAt) })
	return out, nil
}

// ByContentKey returns the active pending row for a content key, if any.
// Terminal rows (superseded/grabbed/expired) are kept for audit but are
// never returned here since they no longer represent a live hold.
func (r *PendingRepo) ByContentKey(ctx context.Context, contentKey string) (*store.PendingRelease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pending {
		if p.ContentKey == contentKey && p.Status == store.PendingStatusPending {
			copied := p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *PendingRepo) OlderThan(ctx context.Context, cutoff time.Time) ([]store.PendingRelease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.PendingRelease, 0)
	for _, p := range r.pending {
		if p.DiscoveredAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

// BlocklistRepo implements store.BlocklistStore.
type BlocklistRepo struct{ *db }

var _ store.BlocklistStore = (*BlocklistRepo)(nil)

func (r *BlocklistRepo) Add(ctx context.Context, e store.BlocklistEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextBlockID++
	e.ID = r.nextBlockID
	r.blocklist[e.ID] = e
	return e.ID, nil
}

func (r *BlocklistRepo) ForContentKey(ctx context.Context, contentKey string) ([]store.BlocklistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.BlocklistEntry, 0)
	for _, e := range r.blocklist {
		if e.ContentKey == contentKey {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *BlocklistRepo) PruneExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pruned := 0
	for id, e := range r.blocklist {
		if e.ExpiresAt != nil && e.ExpiresAt.Before(now) {
			delete(r.blocklist, id)
			pruned++
		}
	}
	return pruned, nil
}

// CooldownRepo implements store.CooldownStore.
type CooldownRepo struct{ *db }

var _ store.CooldownStore = (*CooldownRepo)(nil)

func (r *CooldownRepo) Get(ctx context.Context, contentKey string) (*store.SearchCooldown, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cooldowns[contentKey]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CooldownRepo) Set(ctx context.Context, c store.SearchCooldown) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cooldowns[c.ContentKey] = c
	return nil
}

// HistoryRepo implements store.HistoryStore.
type HistoryRepo struct{ *db }

var _ store.HistoryStore = (*HistoryRepo)(nil)

func (r *HistoryRepo) StartTask(ctx context.Context, taskID, taskType string, startedAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTaskID++
	r.taskHistory[r.nextTaskID] = store.TaskHistory{
		ID: r.nextTaskID, TaskID: taskID, TaskType: taskType,
		StartedAt: startedAt, Status: store.TaskStatusRunning,
	}
	return r.nextTaskID, nil
}

func (r *HistoryRepo) FinishTask(ctx context.Context, id int64, finishedAt time.Time, status store.TaskStatus, itemsConsidered, releasesGrabbed int, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.taskHistory[id]
	if !ok {
		return nil
	}
	h.FinishedAt = &finishedAt
	h.Status = status
	h.ItemsConsidered = itemsConsidered
	h.ReleasesGrabbed = releasesGrabbed
	h.ErrorMessage = errMsg
	r.taskHistory[id] = h
	return nil
}

func (r *HistoryRepo) RecordMonitoring(ctx context.Context, h store.MonitoringHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.monHistory = append(r.monHistory, h)
	return nil
}

func (r *HistoryRepo) RecentTasks(ctx context.Context, taskType string, limit int) ([]store.TaskHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]store.TaskHistory, 0)
	for _, h := range r.taskHistory {
		if taskType != "" && h.TaskType != taskType {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SettingsRepo implements store.SettingsStore.
type SettingsRepo struct{ *db }

var _ store.SettingsStore = (*SettingsRepo)(nil)

func (r *SettingsRepo) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.settings[key]
	return v, ok, nil
}

func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[key] = value
	return nil
}
