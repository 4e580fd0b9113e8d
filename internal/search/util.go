package search

import (
	"strconv"
	"strings"
)

func itoa(n int) string { return strconv.Itoa(n) }

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func join(parts ...string) string { return strings.Join(parts, "\x1f") }

var titleNoisePattern = strings.NewReplacer(
	".", " ", "_", " ", "-", " ", ":", "", "'", "",
)

// normalizeTitle lowercases and strips punctuation/whitespace noise so that
// titles differing only by separators or case compare equal for caching and
// dedup purposes (spec §4.4).
func normalizeTitle(title string) string {
	t := titleNoisePattern.Replace(strings.ToLower(title))
	fields := strings.Fields(t)
	return strings.Join(fields, " ")
}
