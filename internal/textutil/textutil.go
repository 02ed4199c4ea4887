// Package textutil holds the small string helpers shared by the extractor and
// the voice command parser.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	fillerWord = regexp.MustCompile(`(?i)\b(um+|uh+|erm|hmm+)\b`)
)

// CollapseSpace trims s and replaces every whitespace run with a single space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// CapitalizeFirst upper-cases the first letter of s and leaves the rest alone.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Upper(language.English).String(string(r)) + s[size:]
}

// TitleCase capitalizes every word of s, e.g. for project names.
func TitleCase(s string) string {
	return cases.Title(language.English).String(CollapseSpace(s))
}

// HasFiller reports whether s contains spoken filler words such as "um" or "uh".
func HasFiller(s string) bool {
	return fillerWord.MatchString(s)
}

// StripFiller removes filler words and collapses the remaining whitespace.
func StripFiller(s string) string {
	return CollapseSpace(fillerWord.ReplaceAllString(s, " "))
}

// ContainsAny reports whether lower-cased s contains any of the given phrases.
// Phrases are expected in lower case.
func ContainsAny(s string, phrases []string) bool {
	lower := strings.ToLower(s)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Dedupe returns values with duplicates removed, keeping first occurrences.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
