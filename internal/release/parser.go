package release

import (
	"regexp"
	"strconv"
	"strings"
)

// resolutionPatterns are tried in order; the first match wins.
var resolutionPatterns = []struct {
	pattern *regexp.Regexp
	value   Resolution
}{
	{regexp.MustCompile(`(?i)\b2160p\b`), Resolution2160p},
	{regexp.MustCompile(`(?i)\b1080p\b`), Resolution1080p},
	{regexp.MustCompile(`(?i)\b720p\b`), Resolution720p},
	{regexp.MustCompile(`(?i)\b480p\b`), Resolution480p},
	{regexp.MustCompile(`(?i)\b(4K|UHD)\b`), Resolution2160p},
	{regexp.MustCompile(`(?i)\bHD\b`), Resolution720p},
	{regexp.MustCompile(`(?i)\bSD\b`), Resolution480p},
}

// sourcePatterns are ordered longest/most-specific match first, so that e.g.
// "WEB-DL" is matched before a looser "WEB" token would be, and "BluRay"
// wins over a generic "Rip" suffix. REMUX is detected separately as a flag.
var sourcePatterns = []struct {
	pattern *regexp.Regexp
	value   Source
}{
	{regexp.MustCompile(`(?i)\bWEB[-._ ]?DL\b`), SourceWebDL},
	{regexp.MustCompile(`(?i)\bWEB[-._ ]?Rip\b`), SourceWebRip},
	{regexp.MustCompile(`(?i)\b(Blu[-._ ]?Ray|BD[-._ ]?Rip|BR[-._ ]?Rip)\b`), SourceBluRay},
	{regexp.MustCompile(`(?i)\bHD[-._ ]?Rip\b`), SourceHDRip},
	{regexp.MustCompile(`(?i)\bHDTV\b`), SourceHDTV},
	{regexp.MustCompile(`(?i)\bDVD[-._ ]?Rip\b`), SourceDVDRip},
	{regexp.MustCompile(`(?i)\bDVD\b`), SourceDVD},
	{regexp.MustCompile(`(?i)\bPDTV\b`), SourcePDTV},
	{regexp.MustCompile(`(?i)\bDSR\b`), SourceDSR},
	{regexp.MustCompile(`(?i)\bR5\b`), SourceR5},
	{regexp.MustCompile(`(?i)\bSCR(?:EENER)?\b`), SourceSCR},
	{regexp.MustCompile(`(?i)\bTS\b`), SourceTS},
	{regexp.MustCompile(`(?i)\bCAM\b`), SourceCAM},
}

var remuxPattern = regexp.MustCompile(`(?i)\bREMUX\b`)
var repackPattern = regexp.MustCompile(`(?i)\b(REPACK\d*|RERIP)\b`)
var properPattern = regexp.MustCompile(`(?i)\bPROPER\b`)
var threeDPattern = regexp.MustCompile(`(?i)\b3D\b`)

var codecPatterns = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`(?i)\b(x265|HEVC|H[-._ ]?265)\b`), "x265"},
	{regexp.MustCompile(`(?i)\b(x264|AVC|H[-._ ]?264)\b`), "x264"},
	{regexp.MustCompile(`(?i)\bAV1\b`), "AV1"},
	{regexp.MustCompile(`(?i)\bVP9\b`), "VP9"},
	{regexp.MustCompile(`(?i)\bXviD\b`), "XviD"},
	{regexp.MustCompile(`(?i)\bDivX\b`), "DivX"},
	{regexp.MustCompile(`(?i)\bMPEG[-._ ]?2\b`), "MPEG2"},
}

// hdrPatterns are checked in decreasing order of quality; the first match wins.
var hdrPatterns = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`(?i)\bDV\b.*\bHDR10\+?\b|\bHDR10\+?\b.*\bDV\b`), "DV+HDR10+"},
	{regexp.MustCompile(`(?i)\b(DV|Dolby[-._ ]?Vision)\b`), "DV"},
	{regexp.MustCompile(`(?i)\bHDR10\+\b`), "HDR10+"},
	{regexp.MustCompile(`(?i)\bHDR10\b`), "HDR10"},
	{regexp.MustCompile(`(?i)\bHDR\b`), "HDR"},
	{regexp.MustCompile(`(?i)\bHLG\b`), "HLG"},
	{regexp.MustCompile(`(?i)\bPQ\b`), "PQ"},
}

var audioCodecPatterns = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`(?i)\bTrueHD\b`), "TrueHD"},
	{regexp.MustCompile(`(?i)\bDTS[-._ ]?HD[-._ ]?MA\b`), "DTS-HD MA"},
	{regexp.MustCompile(`(?i)\bDTS[-._ ]?X\b`), "DTS-X"},
	{regexp.MustCompile(`(?i)\bDTS\b`), "DTS"},
	{regexp.MustCompile(`(?i)\bDD\+|\bEAC3\b|\bDDP\b`), "DDP"},
	{regexp.MustCompile(`(?i)\bAC3\b|\bDD5\.1\b|\bDD\b`), "AC3"},
	{regexp.MustCompile(`(?i)\bFLAC\b`), "FLAC"},
	{regexp.MustCompile(`(?i)\bAAC\b`), "AAC"},
	{regexp.MustCompile(`(?i)\bOPUS\b`), "OPUS"},
	{regexp.MustCompile(`(?i)\bMP3\b`), "MP3"},
}

var atmosPattern = regexp.MustCompile(`(?i)\bAtmos\b`)

var audioChannelPattern = regexp.MustCompile(`\b([0-9])\.([0-9])\b`)

var editionPatterns = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`(?i)\bExtended\b`), "Extended"},
	{regexp.MustCompile(`(?i)\bDirector'?s[-._ ]?Cut\b`), "Director's Cut"},
	{regexp.MustCompile(`(?i)\bUnrated\b`), "Unrated"},
	{regexp.MustCompile(`(?i)\bTheatrical\b`), "Theatrical"},
	{regexp.MustCompile(`(?i)\bRemastered\b`), "Remastered"},
	{regexp.MustCompile(`(?i)\bIMAX\b`), "IMAX"},
}

var streamingServicePatterns = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`(?i)\bNF\b|\bNetflix\b`), "Netflix"},
	{regexp.MustCompile(`(?i)\bAMZN\b|\bAmazon\b`), "Amazon"},
	{regexp.MustCompile(`(?i)\bDSNP\b|\bDisney\+?\b`), "Disney+"},
	{regexp.MustCompile(`(?i)\bHULU\b`), "Hulu"},
	{regexp.MustCompile(`(?i)\bHMAX\b|\bMax\b`), "Max"},
	{regexp.MustCompile(`(?i)\bATVP\b|\bAppleTV\+?\b`), "Apple TV+"},
	{regexp.MustCompile(`(?i)\bPCOK\b|\bPeacock\b`), "Peacock"},
}

// Complete-series keywords take precedence over season-pack detection.
var completeSeriesPattern = regexp.MustCompile(`(?i)\bComplete[-._ ]?Series\b`)

// Multi-season packs, e.g. "S01-S03", "S01S02S03".
var multiSeasonPackPattern = regexp.MustCompile(`(?i)\bS(\d{1,2})[-._ ]?(?:S(\d{1,2}))+\b`)
var multiSeasonRangePattern = regexp.MustCompile(`(?i)\bS(\d{1,2})-S?(\d{1,2})\b`)

// Single-season pack, e.g. "S01" with no episode marker.
var singleSeasonPackPattern = regexp.MustCompile(`(?i)\bS(\d{1,2})\b`)

// SxxEyy and its range variants.
var episodeRangePattern = regexp.MustCompile(`(?i)\bS(\d{1,2})E(\d{1,3})[-+]E?(\d{1,3})\b`)
var episodeSinglePattern = regexp.MustCompile(`(?i)\bS(\d{1,2})E(\d{1,3})\b`)
var absoluteEpisodePattern = regexp.MustCompile(`(?i)\b[Ee](\d{2,4})\b`)

// releaseGroupPattern captures the token after the last hyphen before the
// file extension (or the end of string for extension-less titles).
var releaseGroupPattern = regexp.MustCompile(`-([A-Za-z0-9]+)(?:\.[A-Za-z0-9]{2,4})?$`)

var bracketedTagPattern = regexp.MustCompile(`\[[^\]]*\]`)

var languagePatterns = []struct {
	pattern *regexp.Regexp
	value   string
}{
	{regexp.MustCompile(`(?i)\bMULTi\b`), "multi"},
	{regexp.MustCompile(`(?i)\bVOSTFR\b`), "fr"},
	{regexp.MustCompile(`(?i)\bFRENCH\b`), "fr"},
	{regexp.MustCompile(`(?i)\bGERMAN\b`), "de"},
	{regexp.MustCompile(`(?i)\bSPANiSH\b`), "es"},
	{regexp.MustCompile(`(?i)\bITALIAN\b`), "it"},
	{regexp.MustCompile(`(?i)\bJAPANESE\b`), "ja"},
	{regexp.MustCompile(`(?i)\bKOREAN\b`), "ko"},
}

// Parse extracts release attributes from a title. It never fails: unknown
// tokens simply leave the corresponding field at its zero value.
func Parse(title string) Attributes {
	attrs := Attributes{
		Resolution: ResolutionUnknown,
		Source:     SourceUnknown,
		RawTitle:   title,
	}

	attrs.Resolution = detectResolution(title)
	attrs.Source = detectSource(title)
	attrs.Codec = detectFirst(title, codecPatterns)
	attrs.HDR = detectFirst(title, hdrPatterns)
	attrs.Audio = detectFirst(title, audioCodecPatterns)
	if attrs.Audio != "" && atmosPattern.MatchString(title) {
		attrs.Audio += " Atmos"
	}
	if m := audioChannelPattern.FindStringSubmatch(title); m != nil {
		attrs.AudioChannels = m[1] + "." + m[2]
	}
	attrs.Edition = detectFirst(title, editionPatterns)
	attrs.StreamingService = detectFirst(title, streamingServicePatterns)
	attrs.ReleaseGroup = detectReleaseGroup(title)
	attrs.Languages = detectLanguages(title)

	attrs.IsRemux = remuxPattern.MatchString(title)
	attrs.IsRepack = repackPattern.MatchString(title)
	attrs.IsProper = properPattern.MatchString(title)
	attrs.Is3D = threeDPattern.MatchString(title)

	detectTV(title, &attrs)

	return attrs
}

func detectResolution(title string) Resolution {
	for _, p := range resolutionPatterns {
		if p.pattern.MatchString(title) {
			return p.value
		}
	}
	return ResolutionUnknown
}

func detectSource(title string) Source {
	if remuxPattern.MatchString(title) {
		// REMUX always implies a BluRay-class source when no other source
		// token is present; if one is present it still wins below since we
		// check the vocabulary first for explicit tokens.
		for _, p := range sourcePatterns {
			if p.pattern.MatchString(title) {
				return p.value
			}
		}
		return SourceBluRay
	}
	for _, p := range sourcePatterns {
		if p.pattern.MatchString(title) {
			return p.value
		}
	}
	return SourceUnknown
}

func detectFirst(title string, patterns []struct {
	pattern *regexp.Regexp
	value   string
}) string {
	for _, p := range patterns {
		if p.pattern.MatchString(title) {
			return p.value
		}
	}
	return ""
}

func detectReleaseGroup(title string) string {
	cleaned := bracketedTagPattern.ReplaceAllString(title, "")
	m := releaseGroupPattern.FindStringSubmatch(strings.TrimSpace(cleaned))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func detectLanguages(title string) []string {
	var langs []string
	seen := map[string]bool{}
	for _, p := range languagePatterns {
		if p.pattern.MatchString(title) && !seen[p.value] {
			langs = append(langs, p.value)
			seen[p.value] = true
		}
	}
	return langs
}

// detectTV applies TV pattern precedence: complete series > multi-season
// pack > SxxEyy[-yy|+yy] > single-season pack > absolute episode number.
func detectTV(title string, attrs *Attributes) {
	if completeSeriesPattern.MatchString(title) {
		attrs.IsCompleteSeries = true
		attrs.IsSeasonPack = true
		return
	}

	if m := multiSeasonRangePattern.FindStringSubmatch(title); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end >= start {
			for s := start; s <= end; s++ {
				attrs.Seasons = append(attrs.Seasons, s)
			}
			attrs.IsSeasonPack = true
			attrs.SeasonCount = len(attrs.Seasons)
			return
		}
	}

	if matches := multiSeasonPackPattern.FindAllStringSubmatch(title, -1); len(matches) > 0 {
		seasonNums := regexp.MustCompile(`(?i)S(\d{1,2})`).FindAllStringSubmatch(title, -1)
		if len(seasonNums) >= 2 {
			for _, sm := range seasonNums {
				n, _ := strconv.Atoi(sm[1])
				attrs.Seasons = append(attrs.Seasons, n)
			}
			attrs.IsSeasonPack = true
			attrs.SeasonCount = len(attrs.Seasons)
			return
		}
	}

	if m := episodeRangePattern.FindStringSubmatch(title); m != nil {
		season, _ := strconv.Atoi(m[1])
		startEp, _ := strconv.Atoi(m[2])
		endEp, _ := strconv.Atoi(m[3])
		attrs.Seasons = []int{season}
		for e := startEp; e <= endEp; e++ {
			attrs.Episodes = append(attrs.Episodes, e)
		}
		return
	}

	if m := episodeSinglePattern.FindStringSubmatch(title); m != nil {
		season, _ := strconv.Atoi(m[1])
		ep, _ := strconv.Atoi(m[2])
		attrs.Seasons = []int{season}
		attrs.Episodes = []int{ep}
		return
	}

	if m := singleSeasonPackPattern.FindStringSubmatch(title); m != nil {
		// A lone SNN with no episode marker is a single-season pack; the
		// absolute-episode pattern below is only tried when no SNN matched.
		season, _ := strconv.Atoi(m[1])
		attrs.Seasons = []int{season}
		attrs.IsSeasonPack = true
		attrs.SeasonCount = 1
		return
	}

	if m := absoluteEpisodePattern.FindStringSubmatch(title); m != nil {
		n, _ := strconv.Atoi(m[1])
		attrs.AbsoluteEpisode = n
	}
}
