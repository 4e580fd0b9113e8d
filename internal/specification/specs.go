package specification

import (
	"time"

	"github.com/cinephage/cinephage/internal/scoring"
)

func durationHours(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

// Specification is a predicate over a Context (spec §4.3).
type Specification func(ctx Context) Decision

// MovieMonitoredSpec and EpisodeMonitoredSpec both enforce the cascading
// monitoring invariant (spec §3); the distinction is only in intent, the
// check is identical since Context.IsMonitored handles both shapes.
func MovieMonitoredSpec(ctx Context) Decision {
	if !ctx.IsMonitored() {
		return Reject(ReasonNotMonitored)
	}
	return Accept()
}

func EpisodeMonitoredSpec(ctx Context) Decision {
	if !ctx.IsMonitored() {
		return Reject(ReasonNotMonitored)
	}
	return Accept()
}

// MissingContentSpec accepts iff the item has no file.
func MissingContentSpec(ctx Context) Decision {
	if ctx.HasFile {
		return Reject(ReasonHasFile)
	}
	return Accept()
}

// NewEpisodeSpec accepts iff airDate falls in [now-windowHours, now].
func NewEpisodeSpec(ctx Context) Decision {
	if ctx.AirDate == nil {
		return Reject(ReasonMissingAirDate)
	}
	windowStart := ctx.Now.Add(-durationHours(ctx.NewEpisodeWindowHours))
	if ctx.AirDate.After(ctx.Now) {
		return Reject(ReasonNotYetAired)
	}
	if ctx.AirDate.Before(windowStart) {
		return Reject(ReasonAiredOutsideWindow)
	}
	return Accept()
}

// CutoffUnmetSpec rejects when the cutoff is enforced and already met, or
// when upgrades are disabled outright.
func CutoffUnmetSpec(existingScore int) Specification {
	return func(ctx Context) Decision {
		if ctx.Profile == nil {
			return Reject(ReasonNoProfile)
		}
		if !ctx.Profile.UpgradesAllowed {
			return Reject(ReasonUpgradesNotAllowed)
		}
		if ctx.Profile.HasCutoff() && existingScore >= ctx.Profile.UpgradeUntilScore {
			return Reject(ReasonAlreadyAtCutoff)
		}
		return Accept()
	}
}

// UpgradeableSpec requires an existing file and a candidate, and uses the
// Scorer's upgrade test. It may accept a candidate whose own score exceeds
// the cutoff: the cutoff only stops initiating searches (CutoffUnmetSpec),
// never rejects a better release already found (spec §4.3).
func UpgradeableSpec(scorer *scoring.Scorer, minScoreIncrement int) Specification {
	return func(ctx Context) Decision {
		if !ctx.HasFile {
			return Reject(ReasonNoExistingFile)
		}
		if ctx.Candidate == nil {
			return Reject(ReasonNoReleaseCandidate)
		}
		if ctx.Profile == nil {
			return Reject(ReasonNoProfile)
		}
		if !ctx.Profile.UpgradesAllowed {
			return Reject(ReasonUpgradesNotAllowed)
		}

		mediaCtx := scoring.Context{MediaType: ctx.MediaType}
		result := scorer.IsUpgrade(ctx.ExistingTitle, ctx.Candidate.Title, *ctx.Profile, scoring.UpgradeParams{
			MinImprovement: minScoreIncrement,
			CandidateSize:  ctx.Candidate.SizeBytes,
			ExistingSize:   ctx.ExistingSize,
			Context:        mediaCtx,
		})

		if !result.IsUpgrade {
			if result.Improvement < minOne(minScoreIncrement) {
				return Reject(ReasonImprovementTooSmall)
			}
			return Reject(ReasonQualityNotBetter)
		}
		return Accept()
	}
}

// BlocklistSpec rejects a candidate matched by a live blocklist entry.
func BlocklistSpec(ctx Context) Decision {
	if ctx.Blocklist.Matched {
		return Reject(ReasonBlocklisted)
	}
	return Accept()
}

// SearchCooldownSpec rejects if now < nextSearchAt.
func SearchCooldownSpec(ctx Context) Decision {
	if ctx.NextSearchAt != nil && ctx.Now.Before(*ctx.NextSearchAt) {
		return Reject(ReasonCooldownActive)
	}
	return Accept()
}

// ProtocolAllowedSpec rejects protocols not in profile.allowedProtocols.
func ProtocolAllowedSpec(ctx Context) Decision {
	if ctx.Profile == nil {
		return Reject(ReasonNoProfile)
	}
	if ctx.Candidate == nil {
		return Reject(ReasonNoReleaseCandidate)
	}
	if !ctx.Profile.AllowsProtocol(ctx.Candidate.Protocol) {
		return Reject(ReasonProtocolNotAllowed)
	}
	return Accept()
}

// SizeSpec rejects a candidate whose score result the scorer flagged as
// SizeRejected. It reads Candidate.Score and does not check the size
// itself, so it relies on a full score being present.
func SizeSpec(ctx Context) Decision {
	if ctx.Candidate == nil {
		return Reject(ReasonNoReleaseCandidate)
	}
	if ctx.Candidate.Score.SizeRejected {
		return Reject(ReasonSizeRejected)
	}
	return Accept()
}

// BelowMinScoreSpec rejects candidates that didn't clear profile.minScore.
func BelowMinScoreSpec(ctx Context) Decision {
	if ctx.Candidate == nil {
		return Reject(ReasonNoReleaseCandidate)
	}
	if ctx.Profile == nil {
		return Reject(ReasonNoProfile)
	}
	if ctx.Candidate.Score.TotalScore < ctx.Profile.MinScore {
		return Reject(ReasonBelowMinScore)
	}
	return Accept()
}

func minOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
