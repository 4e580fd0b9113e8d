package search

import (
	"errors"

	"github.com/cinephage/cinephage/internal/external"
)

// classify extracts an external.ErrorClass from err, defaulting to
// ErrorClassInternal when the adapter didn't classify it (spec §7).
func classify(err error) external.ErrorClass {
	if err == nil {
		return ""
	}
	var classified *external.ClassifiedError
	if errors.As(err, &classified) {
		return classified.Class
	}
	return external.ErrorClassInternal
}

// IndexerOutcome records what happened when one indexer was searched, for
// per-indexer error isolation (spec §4.4: "one indexer's failure must never
// abort the others' results").
type IndexerOutcome struct {
	IndexerID   int64
	IndexerName string
	Err         error
	ErrorClass  external.ErrorClass
	Skipped     bool // never set by Orchestrator.Search: disabled or unsupported indexers get no outcome, there is no per-indexer cooldown, and rate limits are waited out, not skipped
	ResultCount int
}
