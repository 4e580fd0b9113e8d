package search

import "strings"

// dedupe merges candidates that refer to the same underlying release: an
// exact case-insensitive infoHash match, or a normalized-title match whose
// sizes are within 1% of each other (spec §4.4). Merged entries keep the
// highest seeder count and earliest publish date, and accumulate every
// contributing indexer id so rate-limit/priority tie-breaks can see the
// full set.
func dedupe(results []Result) []Result {
	merged := make([]Result, 0, len(results))

	for _, r := range results {
		idx := findMatch(merged, r)
		if idx < 0 {
			merged = append(merged, r)
			continue
		}
		merged[idx] = mergeInto(merged[idx], r)
	}

	return merged
}

func findMatch(existing []Result, candidate Result) int {
	for i, e := range existing {
		if candidate.InfoHash != "" && strings.EqualFold(e.InfoHash, candidate.InfoHash) {
			return i
		}
		if sameTitleAndSize(e, candidate) {
			return i
		}
	}
	return -1
}

func sameTitleAndSize(a, b Result) bool {
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	return withinOnePercent(a.SizeBytes, b.SizeBytes)
}

func withinOnePercent(a, b int64) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	threshold := a / 100
	if threshold == 0 {
		threshold = 1
	}
	return diff <= threshold
}

func mergeInto(existing, candidate Result) Result {
	existing.IndexerIDs = append(existing.IndexerIDs, candidate.IndexerIDs...)
	if candidate.Seeders > existing.Seeders {
		existing.Seeders = candidate.Seeders
	}
	if candidate.PublishDate.Before(existing.PublishDate) {
		existing.PublishDate = candidate.PublishDate
	}
	return existing
}
