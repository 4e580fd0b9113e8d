// Package release parses release titles into structured attributes.
//
// Parse is a pure function: it never performs I/O, never fails on
// malformed input, and degrades to "unknown"/zero values instead.
package release

// Resolution is the detected video resolution.
type Resolution string

const (
	Resolution2160p Resolution = "2160p"
	Resolution1080p Resolution = "1080p"
	Resolution720p  Resolution = "720p"
	Resolution480p  Resolution = "480p"
	ResolutionUnknown Resolution = "unknown"
)

// Source is the detected capture/encode source.
type Source string

const (
	SourceBluRay  Source = "bluray"
	SourceWebDL   Source = "webdl"
	SourceWebRip  Source = "webrip"
	SourceHDTV    Source = "hdtv"
	SourceHDRip   Source = "hdrip"
	SourceDVDRip  Source = "dvdrip"
	SourceDVD     Source = "dvd"
	SourceCAM     Source = "cam"
	SourceTS      Source = "ts"
	SourceSCR     Source = "scr"
	SourcePDTV    Source = "pdtv"
	SourceDSR     Source = "dsr"
	SourceR5      Source = "r5"
	SourceUnknown Source = "unknown"
)

// Attributes is the parsed view of a release title (spec §3 ReleaseAttributes).
type Attributes struct {
	Resolution       Resolution
	Source           Source
	Codec            string
	HDR              string
	Audio             string
	AudioChannels    string
	ReleaseGroup     string
	StreamingService string
	Edition          string
	Languages        []string

	IsRemux  bool
	IsRepack bool
	IsProper bool
	Is3D     bool

	IsSeasonPack     bool
	IsCompleteSeries bool
	SeasonCount      int
	Seasons          []int
	Episodes         []int
	AbsoluteEpisode  int // 0 means unset

	// RawTitle is retained for CustomFormat conditions that need to
	// regex-match against the original title rather than a derived field.
	RawTitle string
}

// HasAbsoluteEpisode reports whether an absolute episode number was detected.
func (a Attributes) HasAbsoluteEpisode() bool {
	return a.AbsoluteEpisode > 0
}
