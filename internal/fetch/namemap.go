package fetch

import (
	"regexp"
	"strings"
)

// canonicalNames maps normalized provider names to the names used in the
// store. Providers disagree with each other and with the selection show;
// entries accrete as mismatches surface.
var canonicalNames = map[string]string{
	"connecticut":     "UConn",
	"texas christian": "TCU",
	"st mary s":       "Saint Mary's",
	"saint marys":     "Saint Mary's",
	"unc":             "North Carolina",
	"ole miss":        "Mississippi",
}

var (
	trailingParens = regexp.MustCompile(`\s*\(.*?\)\s*$`)
	nonAlnum       = regexp.MustCompile(`[^a-z0-9]+`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// NormalizeKey lowercases, strips a trailing parenthetical like " (NCAAB)",
// and collapses punctuation so provider names can be compared loosely.
func NormalizeKey(s string) string {
	s = trailingParens.ReplaceAllString(s, "")
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// ToCanonical maps a raw provider name to the store's canonical name, or
// returns it unchanged when no mapping exists.
func ToCanonical(raw string) string {
	if name, ok := canonicalNames[NormalizeKey(raw)]; ok {
		return name
	}
	return raw
}
