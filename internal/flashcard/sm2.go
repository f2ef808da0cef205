package flashcard

import (
	"math"
	"time"
)

const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3

	QualityCorrect = 4
	QualityWrong   = 1
)

// QualityFor maps a graded answer to an SM-2 quality grade.
func QualityFor(correct bool) int {
	if correct {
		return QualityCorrect
	}
	return QualityWrong
}

// Review records an answer and schedules the next review.
func Review(card *Card, quality int, now time.Time) {
	correct := quality >= 3
	streak := card.CorrectStreak
	if correct {
		streak++
	}

	card.EasinessFactor = UpdateEasinessFactor(card.EasinessFactor, quality, streak)
	card.IntervalDays = CalculateNextInterval(card.IntervalDays, card.EasinessFactor, quality, streak)

	card.ReviewCount++
	if correct {
		card.CorrectCount++
		card.CorrectStreak = streak
	} else {
		card.CorrectStreak = 0
	}
	reviewed := now
	card.LastReviewedAt = &reviewed
	card.NextReviewAt = now.AddDate(0, 0, card.IntervalDays)
}

// UpdateEasinessFactor calculates the new EF for a quality grade.
// Wrong answers on well-known words are penalized less.
func UpdateEasinessFactor(ef float64, quality int, correctStreak int) float64 {
	if ef == 0 {
		ef = DefaultEasinessFactor
	}

	q := float64(quality)
	delta := 0.1 - (5-q)*(0.08+(5-q)*0.02)

	if quality < 3 {
		switch {
		case correctStreak >= 10:
			delta *= 0.37
		case correctStreak >= 6:
			delta *= 0.56
		case correctStreak >= 3:
			delta *= 0.74
		}
	}

	return math.Max(ef+delta, MinEasinessFactor)
}

// CalculateNextInterval returns the days until the next review.
// Correct answers grow the interval by EF (1 and 6 days for the first two),
// lapses shrink it in proportion to the streak that was lost.
func CalculateNextInterval(lastInterval int, ef float64, quality int, correctStreak int) int {
	if ef == 0 {
		ef = DefaultEasinessFactor
	}

	if quality < 3 {
		return lapseInterval(lastInterval, correctStreak)
	}

	switch correctStreak {
	case 1:
		return 1
	case 2:
		return 6
	}
	if lastInterval == 0 {
		lastInterval = 6
	}
	return int(math.Ceil(float64(lastInterval) * ef))
}

func lapseInterval(lastInterval int, lostStreak int) int {
	if lostStreak <= 2 {
		return 1
	}

	multiplier := 0.5
	switch {
	case lostStreak >= 10:
		multiplier = 0.7
	case lostStreak >= 6:
		multiplier = 0.6
	}
	return max(int(math.Ceil(float64(lastInterval)*multiplier)), 1)
}
