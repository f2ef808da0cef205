package statistics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
)

// PeriodStatistics holds statistics for one month
type PeriodStatistics struct {
	Period   string `json:"period"` // "2025-01"
	NewWords int    `json:"newWords"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
	// Reviewed counts unique words whose last review fell in the period
	Reviewed int `json:"reviewed"`
}

func (p PeriodStatistics) Accuracy() int {
	return Stats{Correct: p.Correct, Total: p.Attempts}.Accuracy()
}

// AggregateStatistics holds totals across all periods
type AggregateStatistics struct {
	NewWords int `json:"newWords"`
	Attempts int `json:"attempts"`
	Correct  int `json:"correct"`
	Reviewed int `json:"reviewed"`
}

type StatisticsResult struct {
	Periods   []PeriodStatistics  `json:"periods"`
	Aggregate AggregateStatistics `json:"aggregate"`
}

type periodData struct {
	newWords int
	attempts int
	correct  int
	reviewed map[string]struct{}
}

// CalculateStatistics groups attempts and cards by month.
// It accepts optional year and month filters (0 means no filter).
// A new word is counted in the month its card was added.
func CalculateStatistics(attempts []Attempt, cards []flashcard.Card, year, month int) StatisticsResult {
	stats := make(map[string]*periodData)
	globalReviewed := make(map[string]struct{})

	for _, attempt := range attempts {
		data := periodFor(stats, attempt.At, year, month)
		if data == nil {
			continue
		}
		data.attempts++
		if attempt.Correct {
			data.correct++
		}
	}

	for _, card := range cards {
		if data := periodFor(stats, card.AddedAt, year, month); data != nil {
			data.newWords++
		}
		if card.LastReviewedAt == nil {
			continue
		}
		if data := periodFor(stats, *card.LastReviewedAt, year, month); data != nil {
			key := card.Language + "|" + strings.ToLower(card.Word)
			data.reviewed[key] = struct{}{}
			globalReviewed[key] = struct{}{}
		}
	}

	return buildResult(stats, globalReviewed)
}

// periodFor returns the bucket for at, or nil when at is zero or filtered out.
func periodFor(stats map[string]*periodData, at time.Time, year, month int) *periodData {
	if at.IsZero() || !matchesFilter(at.Year(), int(at.Month()), year, month) {
		return nil
	}
	period := fmt.Sprintf("%d-%02d", at.Year(), int(at.Month()))
	if stats[period] == nil {
		stats[period] = &periodData{reviewed: make(map[string]struct{})}
	}
	return stats[period]
}

func matchesFilter(logYear, logMonth, filterYear, filterMonth int) bool {
	if filterYear == 0 {
		return true
	}
	if logYear != filterYear {
		return false
	}
	if filterMonth == 0 {
		return true
	}
	return logMonth == filterMonth
}

func buildResult(stats map[string]*periodData, globalReviewed map[string]struct{}) StatisticsResult {
	periods := make([]PeriodStatistics, 0, len(stats))

	var aggregate AggregateStatistics
	for period, data := range stats {
		periods = append(periods, PeriodStatistics{
			Period:   period,
			NewWords: data.newWords,
			Attempts: data.attempts,
			Correct:  data.correct,
			Reviewed: len(data.reviewed),
		})
		aggregate.NewWords += data.newWords
		aggregate.Attempts += data.attempts
		aggregate.Correct += data.correct
	}
	aggregate.Reviewed = len(globalReviewed)

	// Newest first
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Period > periods[j].Period
	})

	return StatisticsResult{Periods: periods, Aggregate: aggregate}
}
