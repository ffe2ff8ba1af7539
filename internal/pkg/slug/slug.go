package slug

import (
	"strings"
	"unicode"
)

// Letters keeps only ASCII letters of s, lower-cased. It returns fallback when
// nothing is left.
func Letters(s, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
