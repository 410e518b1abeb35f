package indexer

import (
	"strings"
	"unicode"
)

var markupStripper = strings.NewReplacer("#", " ", "*", " ", "`", " ", ">", " ", "|", " ", "_", " ")

// Preprocess normalizes report markdown for indexing: markup characters become spaces,
// then whitespace is trimmed and collapsed.
func Preprocess(text string) string {
	text = strings.TrimSpace(markupStripper.Replace(text))
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}
