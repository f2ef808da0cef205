package grader

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Normalize lower-cases s, drops the punctuation learners rarely type and collapses whitespace.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = lower.String(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ';', ':', '\'', '"', '¿', '¡', '…':
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Levenshtein counts rune insertions, deletions and substitutions between a and b.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity is (maxLen - distance) / maxLen over runes, and 1 for two empty strings.
func Similarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-levenshtein.ComputeDistance(a, b)) / float64(maxLen)
}
