package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/player"
	"github.com/at-ishikawa/fluentai/internal/scheduler"
	"github.com/at-ishikawa/fluentai/internal/session"
	"github.com/at-ishikawa/fluentai/internal/transcript"
	"github.com/at-ishikawa/fluentai/internal/translation"
)

type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, text, _, _ string) translation.Result {
	if got, ok := m[text]; ok {
		return translation.Result{Translation: got, Confidence: 80, Source: translation.NameOnDeviceTranslator}
	}
	return translation.Result{Translation: text, Confidence: translation.FailedConfidence, Source: translation.SourceFailed, Failed: true}
}

var segments = []transcript.Segment{
	{Text: "Hola", Start: 0, End: 2},
	{Text: "Adiós", Start: 2, End: 4},
}

func newTestModel(t *testing.T) (Model, *session.Session, *player.Simulated) {
	t.Helper()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	video := player.NewSimulated(player.WithClock(func() time.Time { return now }))
	settings := session.Settings{
		NativeLanguage: "en",
		TargetLanguage: "es",
		Scheduler: scheduler.Options{
			PauseDelay:   0.5,
			Slack:        0.5,
			PollInterval: 5 * time.Millisecond,
		},
	}
	store := flashcard.NewYAMLStore(filepath.Join(t.TempDir(), "cards.yml"))
	s := session.New(settings, video, mapTranslator{"Hola": "Hello."}, grader.New(nil, grader.DefaultOptions()), session.WithStore(store))
	t.Cleanup(func() { _ = s.Close() })

	loaded, err := s.Load(context.Background(), transcript.Static(segments))
	require.NoError(t, err)
	return New(context.Background(), s, video, loaded), s, video
}

// triggerReview plays past the end of the first segment and hands its review to the model.
func triggerReview(t *testing.T, m Model, s *session.Session, video *player.Simulated) Model {
	t.Helper()
	video.Seek(2.6)
	video.Play()
	var review session.Review
	select {
	case review = <-s.Reviews():
	case <-time.After(2 * time.Second):
		t.Fatal("no review was triggered")
	}
	return update(t, m, reviewMsg(review))
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

// run executes cmd and the commands of a batch, returning their messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var msgs []tea.Msg
	for _, c := range batch {
		msgs = append(msgs, run(c)...)
	}
	return msgs
}

func feed(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range run(cmd) {
		switch msg.(type) {
		case verdictMsg, savedMsg:
			m = update(t, m, msg)
		}
	}
	return m
}

func TestModel_WatchKeys(t *testing.T) {
	m, s, video := newTestModel(t)
	assert.True(t, video.Paused())

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.False(t, video.Paused())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.False(t, s.AutoPauseEnabled())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.InDelta(t, 5.0, video.CurrentTime(), 0.001)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.InDelta(t, 0.0, video.CurrentTime(), 0.001)
	assert.Contains(t, m.View(), "Auto-pause off")
	assert.Contains(t, m.View(), "Hola")
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestModel_ReviewAccepted(t *testing.T) {
	m, s, video := newTestModel(t)
	m = triggerReview(t, m, s, video)
	require.NotNil(t, m.review)
	assert.Contains(t, m.View(), "Translate into English:")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello")})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.True(t, m.busy)
	m = feed(t, m, cmd)

	assert.False(t, m.busy)
	require.NotNil(t, m.verdict)
	assert.Equal(t, grader.OutcomeAccepted, m.verdict.Outcome)
	assert.Contains(t, m.View(), "Perfect!")

	// Enter again moves on
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.review)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestModel_ReviewRejectedShowsAnswer(t *testing.T) {
	m, s, video := newTestModel(t)
	m = triggerReview(t, m, s, video)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("thank you")})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = feed(t, next.(Model), cmd)

	require.NotNil(t, m.verdict)
	assert.Equal(t, grader.OutcomeRejected, m.verdict.Outcome)
	view := m.View()
	assert.Contains(t, view, "Not quite right.")
	assert.Contains(t, view, "Answer: Hello.")
	assert.NotNil(t, m.review)
}

func TestModel_EmptyAnswer(t *testing.T) {
	m, s, video := newTestModel(t)
	m = triggerReview(t, m, s, video)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = feed(t, next.(Model), cmd)
	assert.Nil(t, m.verdict)
	assert.Equal(t, "Please enter an answer.", m.status)
}

func TestModel_SkipAndSave(t *testing.T) {
	m, s, video := newTestModel(t)
	m = triggerReview(t, m, s, video)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m = feed(t, next.(Model), cmd)
	assert.Equal(t, `Saved "Hola" to your flashcards.`, m.status)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlA})
	m = feed(t, next.(Model), cmd)
	assert.Equal(t, "Already in your flashcards.", m.status)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, m.review)
	_, ok := s.Current()
	assert.False(t, ok)
}
