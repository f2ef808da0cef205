// Package vocabulary picks study words out of a transcript and turns them into flashcards.
package vocabulary

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/at-ishikawa/fluentai/internal/transcript"
)

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"

	DefaultMaxWords = 30
)

var minLength = map[Difficulty]int{
	Beginner:     3,
	Intermediate: 3,
	Advanced:     2,
}

var stopWords = toSet(
	// English
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
	"be", "have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "may", "might", "can", "this", "that", "these",
	"those", "i", "you", "he", "she", "it", "we", "they", "what", "which",
	"who", "when", "where", "why", "how", "all", "each", "every", "both",
	"few", "more", "most", "other", "some", "such", "no", "not", "only",
	"own", "same", "so", "than", "too", "very", "just", "now", "here",
	"there", "then", "them", "their", "my", "your", "his", "her", "its",
	"our", "get", "go", "got", "going", "went", "gone",
	// Spanish
	"el", "la", "los", "las", "un", "una", "unos", "unas", "y", "o", "pero",
	"de", "del", "al", "en", "con", "por", "para", "como", "más", "que",
	"es", "son", "era", "están", "esto", "eso", "mi", "tu", "su",
	// French
	"le", "les", "une", "des", "et", "ou", "mais", "du",
	"dans", "sur", "avec", "pour", "comme", "plus", "est",
	"sont", "ce", "cette", "ces", "mon", "ton", "son",
	// German
	"der", "die", "das", "den", "dem", "ein", "eine", "einen", "einem",
	"und", "oder", "aber", "von", "zu", "mit", "auf", "für", "ist",
	"sind", "war", "waren", "dieser", "diese", "dieses", "mein", "dein", "sein",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

// Candidate is a word worth studying with the first subtitle it appeared in.
type Candidate struct {
	Word      string
	Frequency int
	Context   string
}

// ExistsFunc reports whether a word is already a flashcard.
type ExistsFunc func(ctx context.Context, word string) (bool, error)

// CleanWord lower-cases word and strips everything but letters, digits,
// apostrophes and hyphens, then trims leading and trailing quotes and hyphens.
func CleanWord(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	word = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' || r == '_' {
			return r
		}
		return -1
	}, word)
	return strings.Trim(word, `'"-`)
}

// IsValidWord drops stop words, numbers and words that are too short for difficulty.
func IsValidWord(word string, difficulty Difficulty) bool {
	length := len([]rune(word))
	if length < 2 {
		return false
	}
	if _, ok := stopWords[word]; ok {
		return false
	}
	required, ok := minLength[difficulty]
	if !ok {
		required = minLength[Intermediate]
	}
	if length < required {
		return false
	}
	return strings.IndexFunc(word, unicode.IsLetter) >= 0
}

// Extract ranks the valid words of segments by frequency, earliest first on ties,
// skips words for which exists returns true and keeps at most limit of them.
func Extract(ctx context.Context, segments []transcript.Segment, difficulty Difficulty, exists ExistsFunc, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = DefaultMaxWords
	}

	index := make(map[string]int)
	var candidates []Candidate
	for _, segment := range segments {
		for _, field := range strings.Fields(segment.Text) {
			word := CleanWord(field)
			if !IsValidWord(word, difficulty) {
				continue
			}
			if i, ok := index[word]; ok {
				candidates[i].Frequency++
				continue
			}
			index[word] = len(candidates)
			candidates = append(candidates, Candidate{Word: word, Frequency: 1, Context: segment.Text})
		}
	}
	slices.SortStableFunc(candidates, func(a, b Candidate) int { return b.Frequency - a.Frequency })

	selected := make([]Candidate, 0, min(limit, len(candidates)))
	for _, candidate := range candidates {
		if len(selected) == limit {
			break
		}
		if exists != nil {
			found, err := exists(ctx, candidate.Word)
			if err != nil {
				return nil, fmt.Errorf("exists(%s) > %w", candidate.Word, err)
			}
			if found {
				continue
			}
		}
		selected = append(selected, candidate)
	}
	return selected, nil
}
