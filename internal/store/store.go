package store

import (
	"context"
	"time"
)

// LibraryStore is the collaborator interface over movies and series
// episodes, unified by LibraryItem (spec §3). The concrete schema and query
// engine live in the out-of-scope persistence layer.
type LibraryStore interface {
	MonitoredItems(ctx context.Context, mediaType string, limit int) ([]LibraryItem, error)
	GetByContentKey(ctx context.Context, contentKey string) (*LibraryItem, error)
	RecentlyAired(ctx context.Context, since, until time.Time, limit int) ([]LibraryItem, error)
}

// QueueStore persists QueueItem rows (spec §3, §4.6).
type QueueStore interface {
	Add(ctx context.Context, item QueueItem) (int64, error)
	Update(ctx context.Context, item QueueItem) error
	Get(ctx context.Context, id int64) (*QueueItem, error)
	ByContentKey(ctx context.Context, contentKey string) (*QueueItem, error)
	Active(ctx context.Context) ([]QueueItem, error)
	Delete(ctx context.Context, id int64) error
}

// PendingReleaseStore persists PendingRelease rows (spec §4.6).
type PendingReleaseStore interface {
	Add(ctx context.Context, p PendingRelease) (int64, error)
	Update(ctx context.Context, p PendingRelease) error
	Get(ctx context.Context, id int64) (*PendingRelease, error)
	Delete(ctx context.Context, id int64) error
	DueBefore(ctx context.Context, at time.Time) ([]PendingRelease, error)
	ByContentKey(ctx context.Context, contentKey string) (*PendingRelease, error)
	OlderThan(ctx context.Context, cutoff time.Time) ([]PendingRelease, error)
}

// BlocklistStore persists BlocklistEntry rows (spec §4.6).
type BlocklistStore interface {
	Add(ctx context.Context, e BlocklistEntry) (int64, error)
	ForContentKey(ctx context.Context, contentKey string) ([]BlocklistEntry, error)
	PruneExpired(ctx context.Context, now time.Time) (int, error)
}

// CooldownStore persists SearchCooldown rows (spec §4.5).
type CooldownStore interface {
	Get(ctx context.Context, contentKey string) (*SearchCooldown, error)
	Set(ctx context.Context, c SearchCooldown) error
}

// HistoryStore persists TaskHistory and MonitoringHistory audit rows
// (SPEC_FULL.md expansion).
type HistoryStore interface {
	StartTask(ctx context.Context, taskID, taskType string, startedAt time.Time) (int64, error)
	FinishTask(ctx context.Context, id int64, finishedAt time.Time, status TaskStatus, itemsConsidered, releasesGrabbed int, errMsg string) error
	RecordMonitoring(ctx context.Context, h MonitoringHistory) error
	RecentTasks(ctx context.Context, taskType string, limit int) ([]TaskHistory, error)
}

// SettingsStore is a minimal key-value collaborator for runtime toggles the
// Non-goals leave unspecified (e.g. the removed monitoring_settings.enabled
// toggle — see DESIGN.md open-question decisions).
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
