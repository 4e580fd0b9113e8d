// Package external defines the collaborator interfaces this module treats
// as out of scope (spec §1, §6): indexer protocol adapters, download-client
// adapters, the metadata provider, and the library/import collaborator.
// Only interface shapes live here; concrete implementations (Cardigann-style
// indexer DSL runtimes, qBittorrent clients, TMDB clients, file-system
// import/naming) are out of scope for this module.
package external

import (
	"context"
	"time"
)

// ErrorClass is the closed error taxonomy from spec §7.
type ErrorClass string

const (
	ErrorClassNetwork    ErrorClass = "network"
	ErrorClassAuth       ErrorClass = "auth"
	ErrorClassCaptcha    ErrorClass = "captcha"
	ErrorClassCloudflare ErrorClass = "cloudflare"
	ErrorClassRateLimit  ErrorClass = "ratelimit"
	ErrorClassParse      ErrorClass = "parse"
	ErrorClassInternal   ErrorClass = "internal"
)

// ClassifiedError wraps an error with its taxonomy class so callers can
// decide retry vs. cooldown vs. abort without string-matching (spec §7).
type ClassifiedError struct {
	Class ErrorClass
	Err   error
}

func (e *ClassifiedError) Error() string {
	if e.Err == nil {
		return string(e.Class)
	}
	return string(e.Class) + ": " + e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// IsTransient reports whether the error class is retried with exponential
// backoff where idempotent (spec §7).
func (e *ClassifiedError) IsTransient() bool {
	return e.Class == ErrorClassNetwork || e.Class == ErrorClassRateLimit
}

// Protocol mirrors scoring.Protocol without importing the scoring package,
// keeping this package dependency-free for collaborators to implement.
type Protocol string

const (
	ProtocolTorrent Protocol = "torrent"
	ProtocolUsenet  Protocol = "usenet"
)

// Criteria is a search query (spec §4.4).
type Criteria struct {
	MediaType         string // "movie" | "episode"
	TmdbID            int
	ImdbID            string
	Title             string
	Year              int
	Season            int
	Episode           int
	AbsoluteEpisode   int
	SeasonPack        bool
	AlternativeTitles []string
}

// Release is a candidate discovered from an indexer (spec §3).
type Release struct {
	Title        string
	InfoHash     string
	IndexerID    int64
	IndexerName  string
	Protocol     Protocol
	SizeBytes    int64
	DownloadURL  string
	MagnetURL    string
	PublishDate  time.Time
	Seeders      *int
	Leechers     *int
}

// DownloadPayload is what Download returns: exactly one of the three forms.
type DownloadPayload struct {
	Magnet       string
	TorrentBytes []byte
	NZBBytes     []byte
}

// IndexerDefinition is the declarative shape of an indexer (spec §6); the
// DSL runtime that interprets it is out of scope.
type IndexerDefinition struct {
	ID           int64
	Name         string
	BaseURL      string
	Capabilities []string
	RateLimit    IndexerRateLimit
	Enabled      bool
	SupportsType func(mediaType string) bool
}

// IndexerRateLimit is the rate limit an indexer definition declares
// (spec §6). The search orchestrator does not read it: every indexer is
// checked against the orchestrator's configured indexer limit.
type IndexerRateLimit struct {
	Requests int
	PeriodSec int
	Burst     int
}

// IndexerAdapter is the collaborator interface for a single indexer
// (spec §6). Implementations are out of scope for this module.
type IndexerAdapter interface {
	Definition() IndexerDefinition
	Search(ctx context.Context, criteria Criteria) ([]Release, error)
	Download(ctx context.Context, release Release) (DownloadPayload, error)
}
