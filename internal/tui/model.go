// Package tui is the terminal front end of a viewing session: it shows the
// subtitle under the playhead and asks for a translation whenever the video pauses.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/language"
	"github.com/at-ishikawa/fluentai/internal/session"
	"github.com/at-ishikawa/fluentai/internal/transcript"
)

const (
	seekStep     = 5.0
	refreshEvery = 250 * time.Millisecond
)

// Player is the part of the video the keyboard controls.
type Player interface {
	CurrentTime() float64
	Paused() bool
	TogglePlay()
	SeekBy(delta float64)
}

type (
	reviewMsg  session.Review
	closedMsg  struct{}
	tickMsg    time.Time
	verdictMsg struct {
		verdict grader.Verdict
		err     error
	}
	savedMsg struct {
		card flashcard.Card
		err  error
	}
)

type Model struct {
	ctx      context.Context
	session  *session.Session
	player   Player
	segments []transcript.Segment
	keys     keyMap
	help     help.Model
	input    textinput.Model
	spinner  spinner.Model

	review   *session.Review
	verdict  *grader.Verdict
	status   string
	busy     bool
	quitting bool
}

func New(ctx context.Context, s *session.Session, p Player, segments []transcript.Segment) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 500

	return Model{
		ctx:      ctx,
		session:  s,
		player:   p,
		segments: segments,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
	}
}

// Run shows the model until the learner quits or ctx is done.
func Run(ctx context.Context, s *session.Session, p Player, segments []transcript.Segment) error {
	_, err := tea.NewProgram(New(ctx, s, p, segments), tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForReview(m.session.Reviews()), tick())
}

func waitForReview(reviews <-chan session.Review) tea.Cmd {
	return func() tea.Msg {
		review, ok := <-reviews
		if !ok {
			return closedMsg{}
		}
		return reviewMsg(review)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) submit(input string) tea.Cmd {
	return func() tea.Msg {
		verdict, err := m.session.Submit(m.ctx, input)
		return verdictMsg{verdict: verdict, err: err}
	}
}

func (m Model) escalate() tea.Cmd {
	return func() tea.Msg {
		verdict, err := m.session.Escalate(m.ctx)
		return verdictMsg{verdict: verdict, err: err}
	}
}

func (m Model) save() tea.Cmd {
	return func() tea.Msg {
		card, err := m.session.SaveCard(m.ctx)
		return savedMsg{card: card, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case reviewMsg:
		review := session.Review(msg)
		m.review = &review
		m.verdict = nil
		m.status = ""
		m.input.SetValue("")
		return m, tea.Batch(m.input.Focus(), waitForReview(m.session.Reviews()))

	case verdictMsg:
		m.busy = false
		if msg.err != nil {
			m.status = session.UserMessage(msg.err)
			return m, nil
		}
		m.verdict = &msg.verdict
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.status = session.UserMessage(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Saved %q to your flashcards.", msg.card.Word)
		return m, nil

	case tickMsg:
		// The session resumes on its own after a correct answer
		if m.review != nil && !m.busy {
			if _, ok := m.session.Current(); !ok {
				m.endReview()
			}
		}
		return m, tick()

	case closedMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.AutoPause):
		if m.session.ToggleAutoPause() {
			m.status = "Auto-pause on"
		} else {
			m.status = "Auto-pause off"
		}
		return m, nil
	}

	if m.review == nil {
		switch {
		case key.Matches(msg, m.keys.Play):
			m.player.TogglePlay()
		case key.Matches(msg, m.keys.Back):
			m.player.SeekBy(-seekStep)
		case key.Matches(msg, m.keys.Forward):
			m.player.SeekBy(seekStep)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return m, nil
		}
		if m.verdict != nil && m.verdict.Correct() {
			m.session.Continue()
			m.endReview()
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.submit(m.input.Value()))
	case key.Matches(msg, m.keys.Escalate):
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.escalate())
	case key.Matches(msg, m.keys.Skip):
		if err := m.session.Skip(); err != nil {
			m.status = session.UserMessage(err)
		}
		m.endReview()
		return m, nil
	case key.Matches(msg, m.keys.Save):
		return m, m.save()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endReview() {
	m.review = nil
	m.verdict = nil
	m.busy = false
	m.input.SetValue("")
	m.input.Blur()
}

// subtitleAt returns the text of the segment playing at t.
func (m Model) subtitleAt(t float64) string {
	for _, segment := range m.segments {
		if t >= segment.Start && t < segment.End {
			return segment.Text
		}
	}
	return ""
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	position := m.player.CurrentTime()
	state := "▶"
	if m.player.Paused() {
		state = "⏸"
	}
	autoPause := "on"
	if !m.session.AutoPauseEnabled() {
		autoPause = "off"
	}
	fmt.Fprintf(&b, "%s %s\n", TitleStyle.Render("fluentai"),
		DimTextStyle.Render(fmt.Sprintf("%s %s  auto-pause %s", state, transcript.FormatClock(position), autoPause)))
	b.WriteString("\n")

	if m.review == nil {
		if text := m.subtitleAt(position); text != "" {
			b.WriteString(SubtitleStyle.Render(text))
		} else {
			b.WriteString(DimTextStyle.Render("  ..."))
		}
		b.WriteString("\n\n")
		if m.status != "" {
			b.WriteString(m.status + "\n")
		}
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
		return b.String()
	}

	native := language.Name(m.session.Settings().NativeLanguage)
	fmt.Fprintf(&b, "Translate into %s:\n", native)
	b.WriteString(SubtitleStyle.Render(m.review.Segment.Text))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " Checking...\n")
	case m.verdict != nil:
		b.WriteString(renderVerdict(*m.verdict))
	}
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.reviewHelp()))
	return b.String()
}

func renderVerdict(verdict grader.Verdict) string {
	var b strings.Builder
	switch verdict.Outcome {
	case grader.OutcomeAccepted:
		b.WriteString(SuccessStyle.Render("✓ " + verdict.Feedback))
	case grader.OutcomeClose:
		b.WriteString(WarningStyle.Render("~ " + verdict.Feedback))
	case grader.OutcomeRejected:
		b.WriteString(ErrorStyle.Render("✗ " + verdict.Feedback))
	default:
		b.WriteString(WarningStyle.Render("? " + verdict.Feedback))
	}
	b.WriteString("\n")
	if verdict.Reference != "" && !verdict.Correct() {
		fmt.Fprintf(&b, "  Answer: %s\n", verdict.Reference)
	}
	if verdict.CanEscalate {
		b.WriteString(DimTextStyle.Render("  Press ctrl+e to ask the AI to check your meaning.") + "\n")
	}
	return b.String()
}
