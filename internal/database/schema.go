package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS flashcards (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			word TEXT NOT NULL,
			translation TEXT NOT NULL DEFAULT '',
			context TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL,
			confidence INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			added_at DATETIME NOT NULL,
			review_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			last_reviewed_at DATETIME,
			next_review_at DATETIME NOT NULL,
			easiness_factor REAL NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 0,
			correct_streak INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flashcards_word_language ON flashcards (word, language)`,
		`CREATE INDEX IF NOT EXISTS idx_flashcards_next_review_at ON flashcards (next_review_at)`,
	},
	DriverMySQL: {
		"CREATE TABLE IF NOT EXISTS flashcards (" +
			"id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
			"word VARCHAR(255) NOT NULL," +
			"translation VARCHAR(1024) NOT NULL DEFAULT ''," +
			"context TEXT NOT NULL," +
			"description TEXT NOT NULL," +
			"language VARCHAR(16) NOT NULL," +
			"confidence INT NOT NULL DEFAULT 0," +
			"source VARCHAR(64) NOT NULL DEFAULT ''," +
			"added_at DATETIME NOT NULL," +
			"review_count INT NOT NULL DEFAULT 0," +
			"correct_count INT NOT NULL DEFAULT 0," +
			"last_reviewed_at DATETIME NULL," +
			"next_review_at DATETIME NOT NULL," +
			"easiness_factor DOUBLE NOT NULL DEFAULT 2.5," +
			"interval_days INT NOT NULL DEFAULT 0," +
			"correct_streak INT NOT NULL DEFAULT 0," +
			"INDEX idx_flashcards_word_language (word, language)," +
			"INDEX idx_flashcards_next_review_at (next_review_at)" +
			") DEFAULT CHARSET=utf8mb4",
	},
}

// Migrate creates the tables the application needs.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements, ok := schemas[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %s", db.DriverName())
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("db.ExecContext(migrate) > %w", err)
		}
	}
	return nil
}
