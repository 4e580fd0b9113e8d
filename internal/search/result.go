package search

import (
	"time"

	"github.com/cinephage/cinephage/internal/external"
	"github.com/cinephage/cinephage/internal/release"
	"github.com/cinephage/cinephage/internal/scoring"
)

// Result is a scored, deduplicated candidate ready for the Specification
// Evaluator (spec §4.4).
type Result struct {
	Title       string
	InfoHash    string
	IndexerIDs  []int64
	IndexerName string
	Protocol    scoring.Protocol
	SizeBytes   int64
	DownloadURL string
	MagnetURL   string
	PublishDate time.Time
	Seeders     int
	Attributes  release.Attributes
	Score       scoring.Result
}

func externalToResult(r external.Release, score scoring.Result, attrs release.Attributes) Result {
	seeders := 0
	if r.Seeders != nil {
		seeders = *r.Seeders
	}
	proto := scoring.ProtocolTorrent
	if r.Protocol == external.ProtocolUsenet {
		proto = scoring.ProtocolUsenet
	}
	return Result{
		Title:       r.Title,
		InfoHash:    r.InfoHash,
		IndexerIDs:  []int64{r.IndexerID},
		IndexerName: r.IndexerName,
		Protocol:    proto,
		SizeBytes:   r.SizeBytes,
		DownloadURL: r.DownloadURL,
		MagnetURL:   r.MagnetURL,
		PublishDate: r.PublishDate,
		Seeders:     seeders,
		Attributes:  attrs,
		Score:       score,
	}
}

// Outcome is what a single indexer search produced, for cache TTL
// differentiation (spec §4.4: "5 min for ok, 60s for empty, no cache for
// error").
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeEmpty
	OutcomeError
)
