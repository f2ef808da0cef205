package flashcard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidImport = errors.New("invalid flashcard data format")

// Stats summarizes the cards of one language, or of all when Language is empty.
type Stats struct {
	Total    int    `json:"total"`
	Due      int    `json:"due"`
	Language string `json:"language,omitempty"`
}

// Export returns the cards of language as an indented JSON array.
func Export(ctx context.Context, store Store, language string) ([]byte, error) {
	cards, err := store.ByLanguage(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("store.ByLanguage() > %w", err)
	}
	if cards == nil {
		cards = []Card{}
	}
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent() > %w", err)
	}
	return data, nil
}

// Import reads a JSON array of cards. With merge, cards already present
// for the same word and language are skipped; without it, the store is
// replaced. It returns the number of cards stored.
func Import(ctx context.Context, store Store, data []byte, merge bool, now time.Time) (int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, ErrInvalidImport
	}
	var cards []Card
	if err := json.Unmarshal(trimmed, &cards); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	for i := range cards {
		if cards[i].Word == "" || cards[i].Language == "" {
			return 0, fmt.Errorf("%w: card %d needs a word and a language", ErrInvalidImport, i)
		}
		normalizeImported(&cards[i], now)
	}

	if !merge {
		count, err := store.Replace(ctx, cards)
		if err != nil {
			return 0, fmt.Errorf("store.Replace() > %w", err)
		}
		return count, nil
	}

	var added []Card
	for _, card := range cards {
		exists, err := store.Exists(ctx, card.Word, card.Language)
		if err != nil {
			return 0, fmt.Errorf("store.Exists() > %w", err)
		}
		if exists || containsWord(added, card) {
			continue
		}
		added = append(added, card)
	}
	if len(added) == 0 {
		return 0, nil
	}
	count, err := store.AddAll(ctx, added)
	if err != nil {
		return 0, fmt.Errorf("store.AddAll() > %w", err)
	}
	return count, nil
}

func normalizeImported(card *Card, now time.Time) {
	card.ID = 0
	if card.Source == "" {
		card.Source = SourceManual
	}
	if card.AddedAt.IsZero() {
		card.AddedAt = now
	}
	if card.NextReviewAt.IsZero() {
		card.NextReviewAt = now
	}
	if card.EasinessFactor == 0 {
		card.EasinessFactor = DefaultEasinessFactor
	}
}

func containsWord(cards []Card, card Card) bool {
	for _, c := range cards {
		if sameWord(c, card) {
			return true
		}
	}
	return false
}

// GetStats counts the cards of language and how many of them are due at now.
func GetStats(ctx context.Context, store Store, language string, now time.Time) (Stats, error) {
	cards, err := store.ByLanguage(ctx, language)
	if err != nil {
		return Stats{}, fmt.Errorf("store.ByLanguage() > %w", err)
	}
	stats := Stats{Total: len(cards), Language: language}
	for _, card := range cards {
		if card.IsDue(now) {
			stats.Due++
		}
	}
	return stats, nil
}
