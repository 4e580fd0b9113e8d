// Package store defines the persistence collaborator interfaces this
// module depends on (spec §3, §6). The concrete on-disk database engine is
// an explicit Non-goal; package memstore provides an in-memory reference
// implementation used by tests and the composition root's default wiring.
package store

import "time"

// QueueStatus is a QueueItem's lifecycle state (spec §3).
type QueueStatus string

const (
	QueueStatusDelayed     QueueStatus = "delayed"
	QueueStatusQueued      QueueStatus = "queued"
	QueueStatusDownloading QueueStatus = "downloading"
	QueueStatusImporting   QueueStatus = "importing"
	QueueStatusCompleted   QueueStatus = "completed"
	QueueStatusFailed      QueueStatus = "failed"
)

// QueueItem tracks one grabbed release through download and import
// (spec §3, §4.6).
type QueueItem struct {
	ID              int64
	ContentKey      string // e.g. "movie:123" or "series:45:s02e03"
	Title           string
	InfoHash        string
	DownloadClientID int64
	ExternalID      string // download-client-assigned job id
	Status          QueueStatus
	SizeBytes       int64
	Score           int
	ImportAttempts  int
	AddedAt         time.Time
	UpdatedAt       time.Time
}

// PendingStatus is a PendingRelease row's lifecycle state (spec §3).
type PendingStatus string

const (
	PendingStatusPending    PendingStatus = "pending"
	PendingStatusGrabbed    PendingStatus = "grabbed"
	PendingStatusSuperseded PendingStatus = "superseded"
	PendingStatusExpired    PendingStatus = "expired"
)

// PendingRelease is a release held for its delay window before dispatch
// (spec §3, §4.6). Status tracks the row through its terminal states; a
// superseded row keeps SupersededBy pointing at the row that replaced it so
// the supersession is auditable rather than destroying the losing row.
type PendingRelease struct {
	ID           int64
	ContentKey   string
	Title        string
	InfoHash     string
	SizeBytes    int64
	Protocol     string
	DownloadURL  string
	MagnetURL    string
	Score        int
	Status       PendingStatus
	SupersededBy int64 // ID of the row that superseded this one; 0 = none
	DiscoveredAt time.Time
	ProcessAt    time.Time
}

// BlocklistReason is a closed set of reasons a release lands on the
// blocklist (spec §3). Raw collaborator error text must never be persisted
// here (spec §7); it belongs in a log line alongside the reason.
type BlocklistReason string

const (
	BlocklistReasonDownloadFailed BlocklistReason = "download_failed"
	BlocklistReasonImportFailed   BlocklistReason = "import_failed"
	BlocklistReasonManual         BlocklistReason = "manual"
)

// BlocklistEntry prevents a specific release from being re-grabbed
// (spec §3, §4.6).
type BlocklistEntry struct {
	ID         int64
	ContentKey string
	InfoHash   string
	Title      string
	Reason     BlocklistReason
	CreatedAt  time.Time
	ExpiresAt  *time.Time // nil = permanent
}

// TaskStatus is a TaskHistory row's terminal/non-terminal state
// (SPEC_FULL.md TaskHistory expansion).
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
)

// TaskHistory is one scheduler run's audit record (SPEC_FULL.md expansion).
type TaskHistory struct {
	ID               int64
	TaskID           string
	TaskType         string
	StartedAt        time.Time
	FinishedAt       *time.Time
	Status           TaskStatus
	ItemsConsidered  int
	ReleasesGrabbed  int
	ErrorMessage     string
}

// MonitoringHistory is one evaluated-and-rejected-or-accepted candidate's
// audit record (spec §3).
type MonitoringHistory struct {
	ID         int64
	ContentKey string
	TaskType   string
	Accepted   bool
	Reason     string
	Title      string
	Score      int
	CreatedAt  time.Time
}

// SearchCooldown tracks per-content-key search suppression (spec §3, §4.5).
type SearchCooldown struct {
	ContentKey   string
	NextSearchAt time.Time
}

// LibraryItem is the common shape shared by movies and series/episodes for
// monitoring purposes (spec §3's cascading-monitoring invariant).
type LibraryItem struct {
	ContentKey       string
	MediaType        string // "movie" | "episode"
	Title            string
	Year             int
	TmdbID           int
	Monitored        bool // movie-level flag
	SeriesMonitored  bool // episode-level cascade inputs
	SeasonMonitored  bool
	EpisodeMonitored bool
	HasFile          bool
	ExistingTitle    string
	ExistingSize     int64
	ExistingScore    int
	AirDate          *time.Time
	ProfileID        int64
	SeasonNumber     int
	EpisodeNumber    int
	IsSeasonPack     bool
	EpisodeCount     int
}
