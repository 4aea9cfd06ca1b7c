package ml

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NoneToken marks an explicitly empty skills or certifications list.
const NoneToken = "none"

// NormalizeText lowercases s with full Unicode case mapping and trims
// surrounding whitespace. It must stay identical to the preprocessing
// the model was trained with.
func NormalizeText(s string) string {
	lower := cases.Lower(language.Und).String(s)
	return strings.TrimFunc(lower, isSpace)
}

// CountTokens counts the non-empty comma separated entries of a
// normalized list field. The literal "none" always counts as zero.
func CountTokens(s string) int {
	if s == NoneToken {
		return 0
	}
	count := 0
	for _, token := range strings.Split(s, ",") {
		if strings.TrimFunc(token, isSpace) != "" {
			count++
		}
	}
	return count
}

// isSpace also accepts the ASCII information separators, which the
// training runtime treats as whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
