package scoring

import (
	"github.com/cinephage/cinephage/internal/format"
	"github.com/cinephage/cinephage/internal/release"
)

// BannedScore is the sentinel used for sorting banned releases to the
// bottom of any ranked list (spec §4.2 step 7).
const BannedScore = -999999

// MediaType distinguishes movie from TV scoring context.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Context carries the extra information the scorer needs beyond the title
// and profile (spec §4.2): media type and, for TV season-pack size checks,
// the season's total expected episode count — a library/metadata fact, not
// something derivable from a single release's parsed title. The pack-bonus
// tier itself is derived per-release from release.Attributes instead (see
// packBonus), since a fixed Context is shared across every release
// returned for one search and must not dictate each release's own pack
// classification.
type Context struct {
	MediaType    MediaType
	EpisodeCount int // total episodes in the season being packed; 0 = unknown
}

// Result is the ScoringResult shape from spec §4.2.
type Result struct {
	TotalScore          int
	Breakdown           map[format.Category]int
	MatchedFormats      []format.Format
	MeetsMinimum        bool
	IsBanned            bool
	BannedReasons       []string
	SizeRejected        bool
	SizeRejectionReason string
}

// Scorer evaluates releases against a registry of CustomFormats. The
// registry is read-mostly: rebuilds happen under a write-exclusive swap
// (spec §5), modeled here by replacing the whole Scorer value.
type Scorer struct {
	formats []format.Format
}

// NewScorer builds a Scorer over the given format registry.
func NewScorer(formats []format.Format) *Scorer {
	cp := make([]format.Format, len(formats))
	copy(cp, formats)
	return &Scorer{formats: cp}
}

// Score implements spec §4.2's algorithm.
func (s *Scorer) Score(title string, sizeBytes int64, profile Profile, ctx Context) Result {
	attrs := release.Parse(title)
	return s.ScoreAttributes(attrs, sizeBytes, profile, ctx)
}

// ScoreAttributes scores an already-parsed release. Exposed separately so
// callers that parsed once (e.g. the search orchestrator, after
// deduplication) never re-parse.
func (s *Scorer) ScoreAttributes(attrs release.Attributes, sizeBytes int64, profile Profile, ctx Context) Result {
	result := Result{
		Breakdown: make(map[format.Category]int),
	}

	for _, f := range s.formats {
		if !f.Matches(attrs) {
			continue
		}
		result.MatchedFormats = append(result.MatchedFormats, f)
		contribution := profile.FormatScore(f.ID)
		result.Breakdown[f.Category] += contribution
		result.TotalScore += contribution
		if f.IsBanned() {
			result.IsBanned = true
			result.BannedReasons = append(result.BannedReasons, f.Name)
		}
	}

	packBonus := packBonus(profile.PackPreference, ctx.MediaType, attrs)
	if packBonus != 0 {
		result.TotalScore += packBonus
		result.Breakdown[format.CategoryOther] += packBonus
	}

	result.SizeRejected, result.SizeRejectionReason = checkSize(sizeBytes, profile, ctx, attrs)

	result.MeetsMinimum = !result.IsBanned && !result.SizeRejected && result.TotalScore >= profile.MinScore

	return result
}

// packBonus implements the spec §3 PackPreference bonus ordering: complete
// series > multi-season (>=2) > single season > individual episode (0).
// The tier is read off the candidate release's own parsed attributes, not
// the caller-supplied Context, since one Context is shared across every
// release a search returns.
func packBonus(pref PackPreference, mediaType MediaType, attrs release.Attributes) int {
	if !pref.Enabled || mediaType != MediaTypeTV || !attrs.IsSeasonPack {
		return 0
	}
	if attrs.IsCompleteSeries {
		return pref.CompleteSeriesBonus
	}
	if len(attrs.Seasons) >= 2 {
		return pref.MultiSeasonBonus
	}
	return pref.SingleSeasonBonus
}

const bytesPerGb = 1024 * 1024 * 1024
const bytesPerMb = 1024 * 1024

// checkSize implements spec §4.2 step 6. The season-pack gate reads
// attrs.IsSeasonPack (the release's own parsed title), not a caller-supplied
// flag, since ctx is shared across every release in one search.
func checkSize(sizeBytes int64, profile Profile, ctx Context, attrs release.Attributes) (rejected bool, reason string) {
	if sizeBytes <= 0 {
		return false, ""
	}

	switch ctx.MediaType {
	case MediaTypeMovie:
		sizeGb := float64(sizeBytes) / bytesPerGb
		if profile.MovieMinSizeGb > 0 && sizeGb < profile.MovieMinSizeGb {
			return true, "below minimum movie size"
		}
		if profile.MovieMaxSizeGb > 0 && sizeGb > profile.MovieMaxSizeGb {
			return true, "above maximum movie size"
		}
		return false, ""
	case MediaTypeTV:
		sizeMb := float64(sizeBytes) / bytesPerMb
		if attrs.IsSeasonPack {
			if ctx.EpisodeCount <= 0 {
				// Unknown episode count: do not reject on size (spec §4.2 step 6).
				return false, ""
			}
			sizeMb = sizeMb / float64(ctx.EpisodeCount)
		}
		if profile.EpisodeMinSizeMb > 0 && sizeMb < profile.EpisodeMinSizeMb {
			return true, "below minimum episode size"
		}
		if profile.EpisodeMaxSizeMb > 0 && sizeMb > profile.EpisodeMaxSizeMb {
			return true, "above maximum episode size"
		}
		return false, ""
	default:
		return false, ""
	}
}

// UpgradeResult is the result of isUpgrade (spec §4.2).
type UpgradeResult struct {
	IsUpgrade   bool
	Existing    Result
	Candidate   Result
	Improvement int
}

// UpgradeParams configures IsUpgrade.
type UpgradeParams struct {
	MinImprovement int
	CandidateSize  int64
	ExistingSize   int64
	Context        Context
}

// IsUpgrade implements spec §4.2's upgrade test: scores both releases;
// upgrade iff the candidate is not banned/size-rejected and
// candidate.total - existing.total >= max(1, minImprovement).
func (s *Scorer) IsUpgrade(existingTitle, candidateTitle string, profile Profile, params UpgradeParams) UpgradeResult {
	existing := s.Score(existingTitle, params.ExistingSize, profile, params.Context)
	candidate := s.Score(candidateTitle, params.CandidateSize, profile, params.Context)

	threshold := params.MinImprovement
	if threshold < 1 {
		threshold = 1
	}

	improvement := candidate.TotalScore - existing.TotalScore
	isUpgrade := !candidate.IsBanned && !candidate.SizeRejected && improvement >= threshold

	return UpgradeResult{
		IsUpgrade:   isUpgrade,
		Existing:    existing,
		Candidate:   candidate,
		Improvement: improvement,
	}
}
