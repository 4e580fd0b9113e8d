package external

import (
	"context"
	"time"
)

// ClientState is a download client job's lifecycle state, normalized
// across client implementations (qBittorrent, Transmission, SABnzbd, ...).
type ClientState string

const (
	ClientStateQueued      ClientState = "queued"
	ClientStateDownloading ClientState = "downloading"
	ClientStateSeeding     ClientState = "seeding"
	ClientStateCompleted   ClientState = "completed"
	ClientStateError       ClientState = "error"
	ClientStateMissing     ClientState = "missing" // job no longer known to the client
)

// ClientStatus is one poll of a download job's state (spec §4.6).
type ClientStatus struct {
	State         ClientState
	Progress      float64 // 0..1
	SavePath      string
	DownloadSpeed int64
	ETA           time.Duration
	ErrorMessage  string
}

// DownloadClientDefinition is the declarative shape of a configured
// download client (spec §6).
type DownloadClientDefinition struct {
	ID       int64
	Name     string
	Protocol Protocol
	Priority int
	Enabled  bool
}

// DownloadClientAdapter is the collaborator interface for a single download
// client (spec §6). Implementations (qBittorrent, Transmission, SABnzbd,
// NZBGet, ...) are out of scope for this module.
type DownloadClientAdapter interface {
	Definition() DownloadClientDefinition
	Add(ctx context.Context, payload DownloadPayload, category string) (externalID string, err error)
	Status(ctx context.Context, externalID string) (ClientStatus, error)
	Remove(ctx context.Context, externalID string, deleteData bool) error
}
