// Package format implements CustomFormat scoring rules: named predicates
// over parsed release attributes (spec §3, §4.2).
package format

import (
	"regexp"
	"strings"

	"github.com/cinephage/cinephage/internal/release"
)

// ConditionType selects which release attribute a condition inspects.
type ConditionType string

const (
	ConditionResolution   ConditionType = "resolution"
	ConditionSource       ConditionType = "source"
	ConditionReleaseTitle ConditionType = "release_title"
	ConditionReleaseGroup ConditionType = "release_group"
)

// Condition is a single FormatCondition (spec §3).
//
// Match semantics live on Format, not here: a condition only reports its
// own raw/negated result; Format.Matches applies the required/non-required
// aggregation rule.
type Condition struct {
	Type     ConditionType
	Required bool
	Negate   bool

	// Literal is compared case-insensitively for Resolution/Source conditions.
	Literal string
	// Pattern is compiled once at load time and reused for every match call
	// (Design Notes §9: "compile once at load, share compiled objects").
	Pattern *regexp.Regexp
}

// rawMatch evaluates the condition against parsed attributes, ignoring Negate.
func (c Condition) rawMatch(attrs release.Attributes) bool {
	switch c.Type {
	case ConditionResolution:
		return strings.EqualFold(string(attrs.Resolution), c.Literal)
	case ConditionSource:
		return strings.EqualFold(string(attrs.Source), c.Literal)
	case ConditionReleaseTitle:
		if c.Pattern == nil {
			return false
		}
		return c.Pattern.MatchString(attrs.RawTitle)
	case ConditionReleaseGroup:
		if c.Pattern == nil {
			return false
		}
		return c.Pattern.MatchString(attrs.ReleaseGroup)
	default:
		return false
	}
}

// Matches evaluates the condition including its Negate inversion. A negated
// condition that is satisfied (i.e. the raw match is false, so the negation
// holds) still counts as "matched" per spec §3.
func (c Condition) Matches(attrs release.Attributes) bool {
	result := c.rawMatch(attrs)
	if c.Negate {
		return !result
	}
	return result
}

// MustPattern compiles a regex for use in a Condition, panicking on an
// invalid pattern. Intended for building built-in formats at package init
// time, where a bad pattern is a programming error, not user input.
func MustPattern(pattern string) *regexp.Regexp {
	return regexp.MustCompile(pattern)
}
