// Package scoring implements ScoringProfile-driven evaluation of parsed
// releases against CustomFormats (spec §3, §4.2).
package scoring

import "github.com/cinephage/cinephage/internal/format"

// Protocol is a download protocol a profile may allow.
type Protocol string

const (
	ProtocolTorrent   Protocol = "torrent"
	ProtocolUsenet    Protocol = "usenet"
	ProtocolStreaming Protocol = "streaming"
)

// PackPreference controls the TV season-pack bonus (spec §3).
type PackPreference struct {
	Enabled                  bool
	CompleteSeriesBonus      int
	MultiSeasonBonus         int
	SingleSeasonBonus        int
	MinWantedEpisodesPercent int
}

// Profile is a ScoringProfile (spec §3).
type Profile struct {
	ID                int64
	Name              string
	UpgradesAllowed   bool
	MinScore          int
	UpgradeUntilScore int // cutoff; -1 or 0 = no cutoff
	MinScoreIncrement int

	MovieMinSizeGb   float64
	MovieMaxSizeGb   float64
	EpisodeMinSizeMb float64
	EpisodeMaxSizeMb float64

	PackPreference PackPreference

	AllowedProtocols []Protocol

	// FormatScores maps a format id to the integer score a matched format
	// contributes under this profile; a missing entry contributes 0.
	FormatScores map[int64]int
}

// HasCutoff reports whether the profile enforces an upgrade cutoff.
func (p Profile) HasCutoff() bool {
	return p.UpgradeUntilScore > 0
}

// AllowsProtocol reports whether the given protocol is in the profile's
// allow-list.
func (p Profile) AllowsProtocol(proto Protocol) bool {
	for _, allowed := range p.AllowedProtocols {
		if allowed == proto {
			return true
		}
	}
	return false
}

// FormatScore returns the profile's score for a format id, or 0 if the
// profile has no override (spec §4.2 step 3: "missing entries contribute 0").
func (p Profile) FormatScore(formatID int64) int {
	if p.FormatScores == nil {
		return 0
	}
	return p.FormatScores[formatID]
}

// BuiltinProfiles returns the three immutable base profiles (SPEC_FULL.md
// §4.2a): Best, Efficient, Micro.
func BuiltinProfiles() []Profile {
	best := Profile{
		ID: 1, Name: "Best",
		UpgradesAllowed: true, MinScore: 0, UpgradeUntilScore: 10000, MinScoreIncrement: 1,
		MovieMinSizeGb: 0, MovieMaxSizeGb: 0,
		EpisodeMinSizeMb: 0, EpisodeMaxSizeMb: 0,
		PackPreference: PackPreference{
			Enabled: true, CompleteSeriesBonus: 300, MultiSeasonBonus: 150, SingleSeasonBonus: 50,
			MinWantedEpisodesPercent: 80,
		},
		AllowedProtocols: []Protocol{ProtocolTorrent, ProtocolUsenet},
		FormatScores: map[int64]int{
			format.IDRemux2160p:    2000,
			format.IDBluRay1080p:   800,
			format.IDWebDL1080p:    600,
			format.IDWebRip1080p:   500,
			format.IDHDTV720p:      100,
			format.IDDolbyVision:   300,
			format.IDHDR10Plus:     200,
			format.IDHDR10:         150,
			format.IDAtmos:         150,
			format.IDTrueHD:        100,
			format.IDDTSHDMA:       90,
			format.IDStreamingTier: 50,
			format.IDRepack:        5,
			format.IDProper:        5,
			format.IDDVDSource:     -200,
			format.IDLowQualityGroup: -500,
		},
	}

	efficient := Profile{
		ID: 2, Name: "Efficient",
		UpgradesAllowed: true, MinScore: 0, UpgradeUntilScore: 2000, MinScoreIncrement: 1,
		MovieMinSizeGb: 0, MovieMaxSizeGb: 8,
		EpisodeMinSizeMb: 0, EpisodeMaxSizeMb: 2000,
		PackPreference: PackPreference{
			Enabled: true, CompleteSeriesBonus: 150, MultiSeasonBonus: 75, SingleSeasonBonus: 25,
			MinWantedEpisodesPercent: 80,
		},
		AllowedProtocols: []Protocol{ProtocolTorrent, ProtocolUsenet},
		FormatScores: map[int64]int{
			format.IDRemux2160p:    -1000, // discourage huge remuxes
			format.IDBluRay1080p:   400,
			format.IDWebDL1080p:    600,
			format.IDWebRip1080p:   550,
			format.IDHDTV720p:      100,
			format.IDx265Efficient: 100,
			format.IDDolbyVision:   100,
			format.IDHDR10:         75,
			format.IDAtmos:         75,
			format.IDStreamingTier: 50,
			format.IDDVDSource:     -200,
			format.IDLowQualityGroup: -500,
		},
	}

	micro := Profile{
		ID: 3, Name: "Micro",
		UpgradesAllowed: false, MinScore: 0, UpgradeUntilScore: 0, MinScoreIncrement: 1,
		MovieMinSizeGb: 0, MovieMaxSizeGb: 2,
		EpisodeMinSizeMb: 0, EpisodeMaxSizeMb: 400,
		PackPreference: PackPreference{Enabled: false},
		AllowedProtocols: []Protocol{ProtocolTorrent, ProtocolUsenet},
		FormatScores: map[int64]int{
			format.IDHDTV720p:      50,
			format.IDx265Efficient: 150,
			format.IDDVDSource:     -100,
			format.IDLowQualityGroup: -500,
		},
	}

	return []Profile{best, efficient, micro}
}
