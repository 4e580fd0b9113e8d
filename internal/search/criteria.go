package search

import "github.com/cinephage/cinephage/internal/external"

// Criteria is a normalized search query handed to every selected indexer
// (spec §4.4).
type Criteria struct {
	MediaType         string // "movie" | "episode"
	TmdbID            int
	ImdbID            string
	Title             string
	Year              int
	Season            int
	EpisodePack       bool
	Episode           int
	AbsoluteEpisode   int
	AlternativeTitles []string
}

func (c Criteria) toExternal() external.Criteria {
	return external.Criteria{
		MediaType:         c.MediaType,
		TmdbID:            c.TmdbID,
		ImdbID:            c.ImdbID,
		Title:             c.Title,
		Year:              c.Year,
		Season:            c.Season,
		Episode:           c.Episode,
		AbsoluteEpisode:   c.AbsoluteEpisode,
		SeasonPack:        c.EpisodePack,
		AlternativeTitles: c.AlternativeTitles,
	}
}

// cacheKeyFields returns the subset of Criteria (plus whatever
// profile-impacting fields the caller mixes in) that participate in the
// result-cache key (spec §4.4: "normalized criteria + enabled indexer set +
// profile-impacting fields").
func (c Criteria) cacheKeyFields() string {
	return join(
		c.MediaType, itoa(c.TmdbID), c.ImdbID, normalizeTitle(c.Title), itoa(c.Year),
		itoa(c.Season), itoa(c.Episode), itoa(c.AbsoluteEpisode), boolStr(c.EpisodePack),
	)
}
