// Package cli runs flashcard reviews and quizzes in the terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/at-ishikawa/fluentai/internal/statistics"
)

var errEnd = errors.New("end")

// Recorder is satisfied by *statistics.Tracker.
type Recorder interface {
	RecordAttempt(ctx context.Context, kind string, correct bool) (statistics.Stats, error)
	RecordQuiz(ctx context.Context, kind string, correct, total int) (statistics.Stats, error)
}

// InteractiveQuizCLI contains shared logic for interactive quiz CLIs
type InteractiveQuizCLI struct {
	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	recorder     Recorder
	now          func() time.Time
	bold         *color.Color
	italic       *color.Color
}

func newInteractiveQuizCLI(recorder Recorder) *InteractiveQuizCLI {
	return &InteractiveQuizCLI{
		stdinReader:  bufio.NewReader(os.Stdin),
		stdoutWriter: os.Stdout,
		recorder:     recorder,
		now:          time.Now,
		bold:         color.New(color.Bold),
		italic:       color.New(color.Italic),
	}
}

// WithIO replaces stdin and stdout.
func (cli *InteractiveQuizCLI) WithIO(in io.Reader, out io.Writer) {
	cli.stdinReader = bufio.NewReader(in)
	cli.stdoutWriter = out
}

//go:generate mockgen -source=interactive_quiz_cli.go -destination=../mocks/cli/mock_session.go -package=mock_cli Session

type Session interface {
	Session(ctx context.Context) error
}

// Run calls session.Session until it reports the end, fails, or ctx is done.
func (cli *InteractiveQuizCLI) Run(ctx context.Context, session Session) error {
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(cli.stdoutWriter, "Received interrupt signal, exiting...")
			return nil
		default:
		}

		if err := session.Session(ctx); err != nil {
			if errors.Is(err, errEnd) {
				return nil
			}
			return fmt.Errorf("error: %w", err)
		}
	}
}

// readAnswer reads one line. An empty read at EOF ends the session.
func (cli *InteractiveQuizCLI) readAnswer() (string, error) {
	line, err := cli.stdinReader.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", errEnd
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (cli *InteractiveQuizCLI) printCorrect(format string, args ...any) {
	fmt.Fprint(cli.stdoutWriter, "✅ ")
	_, _ = color.New(color.FgGreen).Fprintf(cli.stdoutWriter, format+"\n", args...)
}

func (cli *InteractiveQuizCLI) printWrong(format string, args ...any) {
	fmt.Fprint(cli.stdoutWriter, "❌ ")
	_, _ = color.New(color.FgRed).Fprintf(cli.stdoutWriter, format+"\n", args...)
}
