package specification

import (
	"time"

	"github.com/cinephage/cinephage/internal/scoring"
)

// BlocklistMatch describes a live blocklist entry that matches the
// candidate release's identity and content link (spec §3 BlocklistEntry).
type BlocklistMatch struct {
	Matched bool
	Reason  string
}

// Candidate is a release under evaluation, reduced to the fields the
// Specification Evaluator needs (the Scorer has already run).
type Candidate struct {
	Title       string
	SizeBytes   int64
	Protocol    scoring.Protocol
	InfoHash    string
	PublishDate time.Time
	Score       scoring.Result
}

// Context carries everything a Specification needs to evaluate one
// (item, candidate) pair. Populated by the caller (monitor tasks, the
// download lifecycle's grab path) from the store collaborator; specs never
// perform I/O themselves (spec §7: "Spec failures surface structured
// reasons, never exceptions").
type Context struct {
	Now time.Time

	// Monitoring state. For movies only Monitored is meaningful; for TV the
	// cascading invariant (spec §3) uses all three.
	MediaType       scoring.MediaType
	Monitored       bool // movie monitored flag
	SeriesMonitored bool
	SeasonMonitored bool
	EpisodeMonitored bool

	HasFile       bool
	ExistingTitle string
	ExistingSize  int64

	Profile *scoring.Profile

	// AirDate is set for episodes; nil for movies or unknown air dates.
	AirDate *time.Time
	// NewEpisodeWindowHours bounds how far back an aired episode is still
	// "new" (spec §4.3 NewEpisodeSpec).
	NewEpisodeWindowHours int

	Blocklist BlocklistMatch

	NextSearchAt *time.Time

	DelayProfile *DelayProfile

	Candidate *Candidate
}

// IsMonitored applies the cascading monitoring invariant (spec §3): for TV,
// series AND season AND episode must all be monitored; for movies, the
// plain Monitored flag applies.
func (c Context) IsMonitored() bool {
	if c.MediaType == scoring.MediaTypeTV {
		return c.SeriesMonitored && c.SeasonMonitored && c.EpisodeMonitored
	}
	return c.Monitored
}
