package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/quiz"
	"github.com/at-ishikawa/fluentai/internal/statistics"
)

// QuizCLI asks the questions of one quiz and records the score when it is done.
type QuizCLI struct {
	*InteractiveQuizCLI
	quiz *quiz.Quiz
	kind string
}

func NewQuizCLI(q *quiz.Quiz, recorder Recorder) *QuizCLI {
	return &QuizCLI{
		InteractiveQuizCLI: newInteractiveQuizCLI(recorder),
		quiz:               q,
		kind:               statistics.KindQuiz,
	}
}

func (c *QuizCLI) Session(ctx context.Context) error {
	question, ok := c.quiz.Current()
	if !ok {
		return c.finish(ctx)
	}

	_, _ = c.bold.Fprintln(c.stdoutWriter, question.Prompt)
	if question.Sentence != "" {
		_, _ = c.italic.Fprintf(c.stdoutWriter, "  %s\n", question.Sentence)
	}
	for i, option := range question.Options {
		fmt.Fprintf(c.stdoutWriter, "  %d. %s\n", i+1, option)
	}
	fmt.Fprint(c.stdoutWriter, "> ")

	input, err := c.readAnswer()
	if errors.Is(err, errEnd) {
		return c.finish(ctx)
	}
	if err != nil {
		return err
	}

	answer, err := c.quiz.Answer(ctx, input)
	if errors.Is(err, grader.ErrEmptyAnswer) {
		fmt.Fprintln(c.stdoutWriter, "Please enter an answer.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("quiz.Answer() > %w", err)
	}
	switch {
	case !answer.Scored:
		fmt.Fprintf(c.stdoutWriter, "⚠️  %s\n", answer.Feedback)
	case answer.Correct:
		c.printCorrect("%s", answer.Feedback)
	default:
		c.printWrong("%s", answer.Feedback)
	}
	fmt.Fprintln(c.stdoutWriter)
	return nil
}

func (c *QuizCLI) finish(ctx context.Context) error {
	result := c.quiz.Result()
	if result.Total == 0 {
		fmt.Fprintln(c.stdoutWriter, "No answers were scored.")
		return errEnd
	}
	_, _ = c.bold.Fprintf(c.stdoutWriter, "Score: %d/%d (%d%%)\n", result.Score, result.Total, result.Percentage)

	if c.recorder != nil {
		stats, err := c.recorder.RecordQuiz(ctx, c.kind, result.Score, result.Total)
		if err != nil {
			slog.Default().Warn("failed to record the quiz", "error", err)
			return errEnd
		}
		fmt.Fprintf(c.stdoutWriter, "Overall accuracy %d%%, streak %d\n", stats.Accuracy(), stats.Streak)
	}
	return errEnd
}
