package flashcard

import (
	"context"
	"errors"
	"time"
)

//go:generate mockgen -source=store.go -destination=../mocks/flashcard/mock_store.go -package=mock_flashcard

var ErrNotFound = errors.New("flashcard not found")

// Store persists cards. An empty language matches every language.
type Store interface {
	Add(ctx context.Context, card *Card) (int64, error)
	// AddAll inserts cards atomically and returns how many were stored.
	AddAll(ctx context.Context, cards []Card) (int, error)
	Get(ctx context.Context, id int64) (*Card, error)
	ByLanguage(ctx context.Context, language string) ([]Card, error)
	Exists(ctx context.Context, word, language string) (bool, error)
	Due(ctx context.Context, language string, now time.Time) ([]Card, error)
	Update(ctx context.Context, card *Card) error
	Delete(ctx context.Context, id int64) error
	// Replace removes every card and stores cards in their place.
	Replace(ctx context.Context, cards []Card) (int, error)
}
