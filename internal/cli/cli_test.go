package cli

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	mock_cli "github.com/at-ishikawa/fluentai/internal/mocks/cli"
	mock_flashcard "github.com/at-ishikawa/fluentai/internal/mocks/flashcard"
	"github.com/at-ishikawa/fluentai/internal/quiz"
	"github.com/at-ishikawa/fluentai/internal/statistics"
)

type recorded struct {
	kind    string
	correct int
	total   int
}

type fakeRecorder struct {
	calls []recorded
}

func (f *fakeRecorder) RecordAttempt(_ context.Context, kind string, correct bool) (statistics.Stats, error) {
	score := 0
	if correct {
		score = 1
	}
	return f.RecordQuiz(context.Background(), kind, score, 1)
}

func (f *fakeRecorder) RecordQuiz(_ context.Context, kind string, correct, total int) (statistics.Stats, error) {
	f.calls = append(f.calls, recorded{kind: kind, correct: correct, total: total})
	var stats statistics.Stats
	for _, call := range f.calls {
		stats.Record(call.correct, call.total)
	}
	return stats, nil
}

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestInteractiveQuizCLI_Run(t *testing.T) {
	tests := []struct {
		name    string
		results []error
		wantErr string
	}{
		{name: "ends normally", results: []error{nil, nil, errEnd}},
		{name: "stops on failure", results: []error{nil, errors.New("disk full")}, wantErr: "error: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			session := mock_cli.NewMockSession(ctrl)
			calls := make([]any, 0, len(tt.results))
			for _, result := range tt.results {
				calls = append(calls, session.EXPECT().Session(gomock.Any()).Return(result))
			}
			gomock.InOrder(calls...)

			cli := newInteractiveQuizCLI(nil)
			err := cli.Run(context.Background(), session)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInteractiveQuizCLI_Run_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	session := mock_cli.NewMockSession(ctrl)

	var out bytes.Buffer
	cli := newInteractiveQuizCLI(nil)
	cli.WithIO(strings.NewReader(""), &out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, cli.Run(ctx, session))
	assert.Contains(t, out.String(), "exiting")
}

func TestFlashcardReviewCLI(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	cards := []flashcard.Card{
		flashcard.NewCard("perro", "dog", "es", now),
		flashcard.NewCard("gato", "cat", "es", now),
	}
	cards[0].ID, cards[1].ID = 1, 2
	cards[0].Context = "El perro ladra."

	ctrl := gomock.NewController(t)
	store := mock_flashcard.NewMockStore(ctrl)
	store.EXPECT().Due(gomock.Any(), "es", gomock.Any()).Return(cards, nil)

	var updated []flashcard.Card
	store.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, card *flashcard.Card) error {
		updated = append(updated, *card)
		return nil
	}).Times(2)

	recorder := &fakeRecorder{}
	review, err := NewFlashcardReviewCLI(context.Background(), store, grader.New(nil, grader.DefaultOptions()), recorder, "es")
	require.NoError(t, err)
	assert.Equal(t, 2, review.GetCardCount())

	var out bytes.Buffer
	review.WithIO(strings.NewReader("Dog\nmouse\n"), &out)
	review.now = func() time.Time { return now }
	require.NoError(t, review.Run(context.Background(), review))

	require.Len(t, updated, 2)
	assert.Equal(t, 1, updated[0].CorrectCount)
	assert.Equal(t, now.AddDate(0, 0, 1), updated[0].NextReviewAt)
	assert.Equal(t, 0, updated[1].CorrectCount)
	assert.Equal(t, 1, updated[1].ReviewCount)

	assert.Equal(t, []recorded{
		{kind: statistics.KindFlashcard, correct: 1, total: 1},
		{kind: statistics.KindFlashcard, correct: 0, total: 1},
	}, recorder.calls)

	output := out.String()
	assert.Contains(t, output, "What does this Spanish word mean?")
	assert.Contains(t, output, "El perro ladra.")
	assert.Contains(t, output, `It's correct. perro means "dog"`)
	assert.Contains(t, output, `It's wrong. gato means "cat"`)
	assert.Contains(t, output, "Reviewed 2 cards, 1 correct.")
}

func TestFlashcardReviewCLI_NothingDue(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_flashcard.NewMockStore(ctrl)
	store.EXPECT().Due(gomock.Any(), "", gomock.Any()).Return(nil, nil)

	review, err := NewFlashcardReviewCLI(context.Background(), store, grader.New(nil, grader.DefaultOptions()), nil, "")
	require.NoError(t, err)
	var out bytes.Buffer
	review.WithIO(strings.NewReader(""), &out)
	require.NoError(t, review.Run(context.Background(), review))
	assert.Contains(t, out.String(), "No flashcards are due")
}

func TestQuizCLI(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	cards := []flashcard.Card{
		flashcard.NewCard("perro", "dog", "es", now),
		flashcard.NewCard("gato", "cat", "es", now),
		flashcard.NewCard("casa", "house", "es", now),
	}
	for i := range cards {
		cards[i].ID = int64(i + 1)
	}
	g := grader.New(nil, grader.DefaultOptions())
	engine := quiz.NewEngine(g, "en", "es", quiz.WithRand(rand.New(rand.NewPCG(3, 4))))
	q, err := engine.FromFlashcards(cards, 2)
	require.NoError(t, err)
	require.Len(t, q.Questions, 2)

	input := "\n" + q.Questions[0].Correct + "\nnot an option\n"
	recorder := &fakeRecorder{}
	c := NewQuizCLI(q, recorder)
	var out bytes.Buffer
	c.WithIO(strings.NewReader(input), &out)
	require.NoError(t, c.Run(context.Background(), c))

	assert.Equal(t, []recorded{{kind: statistics.KindQuiz, correct: 1, total: 2}}, recorder.calls)
	output := out.String()
	assert.Contains(t, output, "Please enter an answer.")
	assert.Contains(t, output, "1. ")
	assert.Contains(t, output, "Score: 1/2 (50%)")
	assert.Contains(t, output, "Overall accuracy 50%, streak 0")
}
