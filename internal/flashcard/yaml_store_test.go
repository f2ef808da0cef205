package flashcard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYAMLStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "cards", "flashcards.yml")
	store := NewYAMLStore(path)

	empty, err := store.ByLanguage(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, empty)

	perro := NewCard("perro", "dog", "es", now)
	id, err := store.Add(ctx, &perro)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	later := NewCard("gato", "cat", "es", now)
	later.NextReviewAt = now.Add(48 * time.Hour)
	count, err := store.AddAll(ctx, []Card{later, NewCard("chat", "cat", "fr", now)})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// a second store on the same file sees the same cards
	reopened := NewYAMLStore(path)

	got, err := reopened.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "gato", got.Word)
	assert.True(t, got.NextReviewAt.Equal(now.Add(48*time.Hour)))

	spanish, err := reopened.ByLanguage(ctx, "es")
	require.NoError(t, err)
	assert.Len(t, spanish, 2)

	exists, err := reopened.Exists(ctx, "PERRO", "es")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = reopened.Exists(ctx, "perro", "fr")
	require.NoError(t, err)
	assert.False(t, exists)

	due, err := reopened.Due(ctx, "", now)
	require.NoError(t, err)
	var dueWords []string
	for _, card := range due {
		dueWords = append(dueWords, card.Word)
	}
	assert.Equal(t, []string{"perro", "chat"}, dueWords)

	Review(got, QualityCorrect, now)
	require.NoError(t, reopened.Update(ctx, got))
	updated, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ReviewCount)

	require.NoError(t, store.Delete(ctx, 1))
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, 1), ErrNotFound)

	count, err = store.Replace(ctx, []Card{NewCard("hund", "dog", "de", now)})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	all, err := store.ByLanguage(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, "hund", all[0].Word)
}

func TestYAMLStore_Update_Missing(t *testing.T) {
	store := NewYAMLStore(filepath.Join(t.TempDir(), "flashcards.yml"))
	err := store.Update(context.Background(), &Card{ID: 9, Word: "perro"})
	assert.ErrorIs(t, err, ErrNotFound)
}
