package report

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

// MaxSlugLength bounds the query-derived part of a report identity.
const MaxSlugLength = 80

// fallbackSlug is used when a query contains no alphanumeric characters.
const fallbackSlug = "report"

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// symbols matches ASCII punctuation and the typographic apostrophe and dashes. They separate
// words and are never spelled out ("&" is not "and", "@" is not "at").
var symbols = regexp.MustCompile(`[\x00-\x2F\x3A-\x40\x5B-\x60\x7B-\x7F\x{2018}\x{2019}\x{2012}-\x{2015}]+`)

// Slugify converts a query into a filename-safe slug: transliterated to ASCII, lowercased,
// runs of non-alphanumerics collapsed to a single hyphen, and truncated to MaxSlugLength.
func Slugify(query string) string {
	s := slug.Make(symbols.ReplaceAllString(query, " "))
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}
