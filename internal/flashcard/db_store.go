package flashcard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/fluentai/internal/database"
)

// DBStore implements Store on a SQLite or MySQL database.
type DBStore struct {
	db *sqlx.DB
}

func NewDBStore(db *sqlx.DB) *DBStore {
	return &DBStore{db: db}
}

func insert(ctx context.Context, execer sqlx.ExecerContext, card *Card) (int64, error) {
	if card.EasinessFactor == 0 {
		card.EasinessFactor = DefaultEasinessFactor
	}
	result, err := execer.ExecContext(ctx,
		`INSERT INTO flashcards (word, translation, context, description, language, confidence, source,
		added_at, review_count, correct_count, last_reviewed_at, next_review_at, easiness_factor, interval_days, correct_streak)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		card.Word, card.Translation, card.Context, card.Description, card.Language, card.Confidence, card.Source,
		card.AddedAt, card.ReviewCount, card.CorrectCount, card.LastReviewedAt, card.NextReviewAt,
		card.EasinessFactor, card.IntervalDays, card.CorrectStreak)
	if err != nil {
		return 0, fmt.Errorf("ExecContext(insert flashcard) > %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result.LastInsertId() > %w", err)
	}
	card.ID = id
	return id, nil
}

func (s *DBStore) Add(ctx context.Context, card *Card) (int64, error) {
	return insert(ctx, s.db, card)
}

func (s *DBStore) AddAll(ctx context.Context, cards []Card) (int, error) {
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		for i := range cards {
			if _, err := insert(ctx, tx, &cards[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(cards), nil
}

func (s *DBStore) Get(ctx context.Context, id int64) (*Card, error) {
	var card Card
	err := s.db.GetContext(ctx, &card, "SELECT * FROM flashcards WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(flashcard) > %w", err)
	}
	return &card, nil
}

func (s *DBStore) ByLanguage(ctx context.Context, language string) ([]Card, error) {
	var cards []Card
	var err error
	if language == "" {
		err = s.db.SelectContext(ctx, &cards, "SELECT * FROM flashcards ORDER BY id")
	} else {
		err = s.db.SelectContext(ctx, &cards, "SELECT * FROM flashcards WHERE language = ? ORDER BY id", language)
	}
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(flashcards by language) > %w", err)
	}
	return cards, nil
}

func (s *DBStore) Exists(ctx context.Context, word, language string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM flashcards WHERE LOWER(word) = LOWER(?) AND language = ?",
		word, language); err != nil {
		return false, fmt.Errorf("db.GetContext(flashcard exists) > %w", err)
	}
	return count > 0, nil
}

func (s *DBStore) Due(ctx context.Context, language string, now time.Time) ([]Card, error) {
	var cards []Card
	var err error
	if language == "" {
		err = s.db.SelectContext(ctx, &cards,
			"SELECT * FROM flashcards WHERE next_review_at <= ? ORDER BY next_review_at", now)
	} else {
		err = s.db.SelectContext(ctx, &cards,
			"SELECT * FROM flashcards WHERE language = ? AND next_review_at <= ? ORDER BY next_review_at", language, now)
	}
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(due flashcards) > %w", err)
	}
	return cards, nil
}

func (s *DBStore) Update(ctx context.Context, card *Card) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE flashcards SET translation = ?, context = ?, description = ?, confidence = ?, review_count = ?,
		correct_count = ?, last_reviewed_at = ?, next_review_at = ?, easiness_factor = ?, interval_days = ?, correct_streak = ?
		WHERE id = ?`,
		card.Translation, card.Context, card.Description, card.Confidence, card.ReviewCount,
		card.CorrectCount, card.LastReviewedAt, card.NextReviewAt, card.EasinessFactor, card.IntervalDays, card.CorrectStreak,
		card.ID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(update flashcard) > %w", err)
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM flashcards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("db.ExecContext(delete flashcard) > %w", err)
	}
	return requireAffected(result, id)
}

func (s *DBStore) Replace(ctx context.Context, cards []Card) (int, error) {
	err := database.RunInTx(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM flashcards"); err != nil {
			return fmt.Errorf("tx.ExecContext(clear flashcards) > %w", err)
		}
		for i := range cards {
			if _, err := insert(ctx, tx, &cards[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(cards), nil
}

// requireAffected turns a statement that matched no row into ErrNotFound.
func requireAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("result.RowsAffected() > %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
