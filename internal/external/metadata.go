package external

import (
	"context"
	"time"
)

// MediaMetadata is the subset of metadata-provider data this module
// consumes (spec §6): identity and air-date information needed by the
// monitoring tasks and the Specification Evaluator's NewEpisodeSpec.
type MediaMetadata struct {
	TmdbID        int
	ImdbID        string
	Title         string
	Year          int
	AirDate       *time.Time
	SeasonNumber  int
	EpisodeNumber int
}

// MetadataProvider is the collaborator interface for an external metadata
// source (spec §6). Concrete TMDB/TVDB/OMDB clients are out of scope.
type MetadataProvider interface {
	GetMovie(ctx context.Context, tmdbID int) (MediaMetadata, error)
	GetEpisode(ctx context.Context, tmdbID, season, episode int) (MediaMetadata, error)
}

// ImportCollaborator is the collaborator interface for filesystem
// import/naming/subtitle handling after a download completes (spec §6).
// The concrete renamer/mover/subtitle pipeline is out of scope.
type ImportCollaborator interface {
	Import(ctx context.Context, contentKey, sourcePath string) (importedPath string, err error)
}
