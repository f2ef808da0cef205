package flashcard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		card    Card
		quality int

		wantEF       float64
		wantInterval int
		wantStreak   int
		wantCorrect  int
	}{
		{
			name:         "first correct answer",
			card:         NewCard("perro", "dog", "es", now),
			quality:      QualityCorrect,
			wantEF:       2.5,
			wantInterval: 1,
			wantStreak:   1,
			wantCorrect:  1,
		},
		{
			name:         "second correct answer",
			card:         Card{EasinessFactor: 2.5, IntervalDays: 1, CorrectStreak: 1, ReviewCount: 1, CorrectCount: 1},
			quality:      QualityCorrect,
			wantEF:       2.5,
			wantInterval: 6,
			wantStreak:   2,
			wantCorrect:  2,
		},
		{
			name:         "third correct answer grows by EF",
			card:         Card{EasinessFactor: 2.5, IntervalDays: 6, CorrectStreak: 2, ReviewCount: 2, CorrectCount: 2},
			quality:      QualityCorrect,
			wantEF:       2.5,
			wantInterval: 15,
			wantStreak:   3,
			wantCorrect:  3,
		},
		{
			name:         "perfect answer raises EF",
			card:         Card{EasinessFactor: 2.5, IntervalDays: 6, CorrectStreak: 2},
			quality:      5,
			wantEF:       2.6,
			wantInterval: 16,
			wantStreak:   3,
			wantCorrect:  1,
		},
		{
			name:         "lapse after a streak shrinks the interval",
			card:         Card{EasinessFactor: 2.5, IntervalDays: 15, CorrectStreak: 3, ReviewCount: 3, CorrectCount: 3},
			quality:      QualityWrong,
			wantEF:       2.1004,
			wantInterval: 8,
			wantStreak:   0,
			wantCorrect:  3,
		},
		{
			name:         "lapse while learning resets",
			card:         NewCard("gato", "cat", "es", now),
			quality:      QualityWrong,
			wantEF:       1.96,
			wantInterval: 1,
			wantStreak:   0,
		},
		{
			name:         "EF never drops below the minimum",
			card:         Card{EasinessFactor: MinEasinessFactor, IntervalDays: 1},
			quality:      QualityWrong,
			wantEF:       MinEasinessFactor,
			wantInterval: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := tt.card
			Review(&card, tt.quality, now)

			assert.InDelta(t, tt.wantEF, card.EasinessFactor, 0.0001)
			assert.Equal(t, tt.wantInterval, card.IntervalDays)
			assert.Equal(t, tt.wantStreak, card.CorrectStreak)
			assert.Equal(t, tt.wantCorrect, card.CorrectCount)
			assert.Equal(t, tt.card.ReviewCount+1, card.ReviewCount)
			require.NotNil(t, card.LastReviewedAt)
			assert.Equal(t, now, *card.LastReviewedAt)
			assert.Equal(t, now.AddDate(0, 0, tt.wantInterval), card.NextReviewAt)
		})
	}
}

func TestCalculateNextInterval_Lapse(t *testing.T) {
	tests := []struct {
		lastInterval int
		lostStreak   int
		want         int
	}{
		{lastInterval: 30, lostStreak: 2, want: 1},
		{lastInterval: 30, lostStreak: 3, want: 15},
		{lastInterval: 30, lostStreak: 6, want: 18},
		{lastInterval: 30, lostStreak: 10, want: 21},
		{lastInterval: 0, lostStreak: 10, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateNextInterval(tt.lastInterval, 2.5, QualityWrong, tt.lostStreak))
	}
}

func TestQualityFor(t *testing.T) {
	assert.Equal(t, QualityCorrect, QualityFor(true))
	assert.Equal(t, QualityWrong, QualityFor(false))
}
