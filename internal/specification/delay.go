package specification

import "time"

// DelayProfile mirrors spec §3's DelayProfile entity.
type DelayProfile struct {
	Enabled              bool
	UsenetDelayMin       int
	TorrentDelayMin      int
	QualityDelays        map[string]int // resolution -> minutes
	PreferredProtocol    string         // "", "torrent", or "usenet"
	BypassIfHighestQuality bool
	BypassIfAboveScore   *int
	SortOrder            int
}

// DelayDecision is DelaySpec's richer result: besides accept/reject it may
// ask the caller to delay dispatch until ProcessAt.
type DelayDecision struct {
	Decision
	ShouldDelay bool
	ProcessAt   time.Time
}

// DelaySpec computes a grab time for a candidate release (spec §4.3,
// §4.5/§4.6). It never rejects outright; it either accepts immediately
// (bypass fired, or delay disabled) or asks the caller to hold the release
// in the pending queue until ProcessAt.
func DelaySpec(ctx Context, resolution string, isHighestQuality bool) DelayDecision {
	profile := ctx.DelayProfile
	if profile == nil || !profile.Enabled {
		return DelayDecision{Decision: Accept()}
	}

	if profile.BypassIfHighestQuality && isHighestQuality {
		return DelayDecision{Decision: Accept()}
	}
	if profile.BypassIfAboveScore != nil && ctx.Candidate != nil &&
		ctx.Candidate.Score.TotalScore > *profile.BypassIfAboveScore {
		return DelayDecision{Decision: Accept()}
	}

	delayMin := delayMinutesFor(profile, ctx.Candidate, resolution)
	if delayMin <= 0 {
		return DelayDecision{Decision: Accept()}
	}

	return DelayDecision{
		Decision:    Accept(),
		ShouldDelay: true,
		ProcessAt:   ctx.Now.Add(time.Duration(delayMin) * time.Minute),
	}
}

func delayMinutesFor(profile *DelayProfile, candidate *Candidate, resolution string) int {
	if qd, ok := profile.QualityDelays[resolution]; ok {
		return qd
	}
	if candidate == nil {
		return profile.TorrentDelayMin
	}
	switch candidate.Protocol {
	case "usenet":
		return profile.UsenetDelayMin
	default:
		return profile.TorrentDelayMin
	}
}
