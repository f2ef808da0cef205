// Package flashcard stores vocabulary cards and schedules their reviews.
package flashcard

import (
	"strings"
	"time"
)

const (
	SourceManual     = "manual"
	SourceVocabulary = "vocabulary"
	SourceSubtitle   = "subtitle"
)

// Card is a vocabulary entry reviewed with spaced repetition.
type Card struct {
	ID          int64  `db:"id" json:"id" yaml:"id"`
	Word        string `db:"word" json:"word" yaml:"word"`
	Translation string `db:"translation" json:"translation" yaml:"translation"`
	Context     string `db:"context" json:"context,omitempty" yaml:"context,omitempty"`
	Description string `db:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Language    string `db:"language" json:"language" yaml:"language"`
	Confidence  int    `db:"confidence" json:"confidence" yaml:"confidence"`
	// Source is the provider tag the translation came from, or "manual".
	Source string `db:"source" json:"source" yaml:"source"`

	AddedAt        time.Time  `db:"added_at" json:"addedDate" yaml:"added_at"`
	ReviewCount    int        `db:"review_count" json:"reviewCount" yaml:"review_count"`
	CorrectCount   int        `db:"correct_count" json:"correctCount" yaml:"correct_count"`
	LastReviewedAt *time.Time `db:"last_reviewed_at" json:"lastReviewed,omitempty" yaml:"last_reviewed_at,omitempty"`
	NextReviewAt   time.Time  `db:"next_review_at" json:"nextReview" yaml:"next_review_at"`
	EasinessFactor float64    `db:"easiness_factor" json:"easinessFactor" yaml:"easiness_factor"`
	IntervalDays   int        `db:"interval_days" json:"intervalDays" yaml:"interval_days"`
	CorrectStreak  int        `db:"correct_streak" json:"correctStreak" yaml:"correct_streak"`
}

// NewCard returns a card that is due immediately.
func NewCard(word, translation, language string, now time.Time) Card {
	return Card{
		Word:           strings.TrimSpace(word),
		Translation:    strings.TrimSpace(translation),
		Language:       language,
		Source:         SourceManual,
		AddedAt:        now,
		NextReviewAt:   now,
		EasinessFactor: DefaultEasinessFactor,
	}
}

// IsDue reports whether the card should be reviewed at now.
func (c Card) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// Accuracy is the share of correct reviews in percent.
func (c Card) Accuracy() int {
	if c.ReviewCount == 0 {
		return 0
	}
	return c.CorrectCount * 100 / c.ReviewCount
}

// sameWord matches words case-insensitively within a language.
func sameWord(a, b Card) bool {
	return a.Language == b.Language && strings.EqualFold(a.Word, b.Word)
}
