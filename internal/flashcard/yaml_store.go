package flashcard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLStore keeps every card in a single YAML file.
type YAMLStore struct {
	path string
	mu   sync.Mutex
}

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

func (s *YAMLStore) load() ([]Card, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", s.path, err)
	}
	var cards []Card
	if err := yaml.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal(%s) > %w", s.path, err)
	}
	return cards, nil
}

func (s *YAMLStore) save(cards []Card) error {
	data, err := yaml.Marshal(cards)
	if err != nil {
		return fmt.Errorf("yaml.Marshal() > %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("os.WriteFile(%s) > %w", s.path, err)
	}
	return nil
}

// update loads the file, applies fn and writes the result back.
func (s *YAMLStore) update(fn func(cards []Card) ([]Card, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards, err := s.load()
	if err != nil {
		return err
	}
	cards, err = fn(cards)
	if err != nil {
		return err
	}
	return s.save(cards)
}

func (s *YAMLStore) read() ([]Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func nextID(cards []Card) int64 {
	var id int64
	for _, card := range cards {
		id = max(id, card.ID)
	}
	return id + 1
}

func appendCards(existing []Card, added []Card) []Card {
	id := nextID(existing)
	for i := range added {
		if added[i].EasinessFactor == 0 {
			added[i].EasinessFactor = DefaultEasinessFactor
		}
		added[i].ID = id
		id++
	}
	return append(existing, added...)
}

func (s *YAMLStore) Add(_ context.Context, card *Card) (int64, error) {
	err := s.update(func(cards []Card) ([]Card, error) {
		added := []Card{*card}
		cards = appendCards(cards, added)
		*card = added[0]
		return cards, nil
	})
	if err != nil {
		return 0, err
	}
	return card.ID, nil
}

func (s *YAMLStore) AddAll(_ context.Context, added []Card) (int, error) {
	err := s.update(func(cards []Card) ([]Card, error) {
		return appendCards(cards, added), nil
	})
	if err != nil {
		return 0, err
	}
	return len(added), nil
}

func (s *YAMLStore) Get(_ context.Context, id int64) (*Card, error) {
	cards, err := s.read()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(cards, func(card Card) bool { return card.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return &cards[i], nil
}

func (s *YAMLStore) ByLanguage(_ context.Context, language string) ([]Card, error) {
	cards, err := s.read()
	if err != nil {
		return nil, err
	}
	if language == "" {
		return cards, nil
	}
	return slices.DeleteFunc(cards, func(card Card) bool { return card.Language != language }), nil
}

func (s *YAMLStore) Exists(_ context.Context, word, language string) (bool, error) {
	cards, err := s.read()
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(cards, func(card Card) bool {
		return card.Language == language && strings.EqualFold(card.Word, word)
	}), nil
}

func (s *YAMLStore) Due(ctx context.Context, language string, now time.Time) ([]Card, error) {
	cards, err := s.ByLanguage(ctx, language)
	if err != nil {
		return nil, err
	}
	cards = slices.DeleteFunc(cards, func(card Card) bool { return !card.IsDue(now) })
	slices.SortStableFunc(cards, func(a, b Card) int { return a.NextReviewAt.Compare(b.NextReviewAt) })
	return cards, nil
}

func (s *YAMLStore) Update(_ context.Context, card *Card) error {
	return s.update(func(cards []Card) ([]Card, error) {
		i := slices.IndexFunc(cards, func(c Card) bool { return c.ID == card.ID })
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, card.ID)
		}
		cards[i] = *card
		return cards, nil
	})
}

func (s *YAMLStore) Delete(_ context.Context, id int64) error {
	return s.update(func(cards []Card) ([]Card, error) {
		i := slices.IndexFunc(cards, func(c Card) bool { return c.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return slices.Delete(cards, i, i+1), nil
	})
}

func (s *YAMLStore) Replace(_ context.Context, replacement []Card) (int, error) {
	err := s.update(func([]Card) ([]Card, error) {
		return appendCards(nil, replacement), nil
	})
	if err != nil {
		return 0, err
	}
	return len(replacement), nil
}
