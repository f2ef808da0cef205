package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/fluentai/internal/bootstrap"
	"github.com/at-ishikawa/fluentai/internal/cli"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/quiz"
	"github.com/at-ishikawa/fluentai/internal/session"
	"github.com/at-ishikawa/fluentai/internal/transcript"
	"github.com/at-ishikawa/fluentai/internal/vocabulary"
)

func newQuizCommand() *cobra.Command {
	var (
		questions   int
		captionFile string
	)

	command := &cobra.Command{
		Use:   "quiz",
		Short: "Take a short quiz on your flashcards or on a caption file",
		Long: `Without --from, asks for the meaning of your flashcards.
With --from, asks the on-device writer or Gemini for questions about the captions
and falls back to built-in questions when neither is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				cards, err := a.store.ByLanguage(ctx, a.cfg.Languages.Target)
				if err != nil {
					return fmt.Errorf("store.ByLanguage() > %w", err)
				}

				var q *quiz.Quiz
				if captionFile == "" {
					q, err = a.engine.FromFlashcards(cards, questions)
				} else {
					q, err = buildCaptionQuiz(ctx, a, captionFile, cards)
				}
				if errors.Is(err, quiz.ErrNotEnoughCards) || errors.Is(err, quiz.ErrNoContent) {
					fmt.Fprintln(cmd.OutOrStdout(), err.Error())
					return nil
				}
				if err != nil {
					return fmt.Errorf("build quiz > %w", err)
				}

				fmt.Printf("Starting quiz with %d questions\n\n", len(q.Questions))
				quizCLI := cli.NewQuizCLI(q, a.tracker)
				return quizCLI.Run(ctx, quizCLI)
			})
		},
	}

	command.Flags().IntVarP(&questions, "questions", "n", quiz.DefaultQuestions, "number of flashcard questions")
	command.Flags().StringVar(&captionFile, "from", "", "caption file to build the quiz from")
	command.AddCommand(newQuizRemindCommand())
	return command
}

func buildCaptionQuiz(ctx context.Context, a *app, path string, cards []flashcard.Card) (*quiz.Quiz, error) {
	segments, err := transcript.FileSource{Path: path}.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", session.UserMessage(err), err)
	}
	candidates, err := vocabulary.Extract(ctx, segments, vocabulary.Difficulty(a.cfg.Vocabulary.Difficulty), nil, a.cfg.Vocabulary.MaxWords)
	if err != nil {
		return nil, fmt.Errorf("vocabulary.Extract() > %w", err)
	}
	words := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		words = append(words, candidate.Word)
	}
	return a.engine.Build(ctx, quiz.Context{
		Subtitle:   transcript.FullText(segments),
		Cards:      cards,
		Vocabulary: words,
	})
}

func newQuizRemindCommand() *cobra.Command {
	var once bool

	command := &cobra.Command{
		Use:   "remind",
		Short: "Print a practice question from your flashcards every few minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Notifications.Enabled && !once {
				fmt.Fprintln(cmd.OutOrStdout(), "Reminders are disabled. Set notifications.enabled in the config or use --once.")
				return nil
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("newApp() > %w", err)
			}

			bootstrapApp := bootstrap.New()
			bootstrapApp.AddCloser("app", a)
			return bootstrapApp.Run(cmd.Context(), func(ctx context.Context) error {
				interval := time.Duration(cfg.Notifications.QuizFrequency) * time.Minute
				return remind(ctx, a, cmd.OutOrStdout(), interval, once)
			})
		},
	}
	command.Flags().BoolVar(&once, "once", false, "print one reminder and exit")
	return command
}

func remind(ctx context.Context, a *app, out io.Writer, interval time.Duration, once bool) error {
	bold := color.New(color.Bold, color.FgCyan)
	ask := func() error {
		cards, err := a.store.ByLanguage(ctx, a.cfg.Languages.Target)
		if err != nil {
			return fmt.Errorf("store.ByLanguage() > %w", err)
		}
		card, ok := a.engine.PickPractice(cards, time.Now())
		if !ok {
			fmt.Fprintln(out, "Add some flashcards to get practice reminders.")
			return nil
		}
		fmt.Fprintf(out, "%s %s\n", bold.Sprint("Time to practice!"), quiz.PracticePrompt(card))
		return nil
	}

	if err := ask(); err != nil || once {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := ask(); err != nil {
				return err
			}
		}
	}
}
