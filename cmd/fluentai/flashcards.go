package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/fluentai/internal/cli"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/language"
	"github.com/at-ishikawa/fluentai/internal/pdf"
	"github.com/at-ishikawa/fluentai/internal/statistics"
)

type exportFormat string

const (
	formatJSON     exportFormat = "json"
	formatMarkdown exportFormat = "md"
	formatPDF      exportFormat = "pdf"
)

var _ pflag.Value = (*exportFormat)(nil)

func (f *exportFormat) String() string { return string(*f) }
func (f *exportFormat) Type() string   { return "format" }

func (f *exportFormat) Set(value string) error {
	switch exportFormat(value) {
	case formatJSON, formatMarkdown, formatPDF:
		*f = exportFormat(value)
		return nil
	}
	return fmt.Errorf("must be one of json, md, pdf")
}

func newFlashcardsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "flashcards",
		Aliases: []string{"fc"},
		Short:   "Manage and review flashcards",
	}
	command.PersistentFlags().String("language", "", "language of the cards (default is the target language, \"all\" for every language)")

	command.AddCommand(
		newFlashcardsListCommand(false),
		newFlashcardsListCommand(true),
		newFlashcardsAddCommand(),
		newFlashcardsDeleteCommand(),
		newFlashcardsExportCommand(),
		newFlashcardsImportCommand(),
		newFlashcardsStatsCommand(),
		newFlashcardsReviewCommand(),
	)
	return command
}

// languageFlag resolves --language: empty means the target language and "all" every language.
func languageFlag(cmd *cobra.Command, a *app) string {
	value, _ := cmd.Flags().GetString("language")
	switch value {
	case "":
		return a.cfg.Languages.Target
	case "all":
		return ""
	}
	return language.Base(value)
}

func newFlashcardsListCommand(dueOnly bool) *cobra.Command {
	use, short := "list", "List flashcards"
	if dueOnly {
		use, short = "due", "List flashcards that are due for review"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				lang := languageFlag(cmd, a)
				var cards []flashcard.Card
				var err error
				if dueOnly {
					cards, err = a.store.Due(ctx, lang, time.Now())
				} else {
					cards, err = a.store.ByLanguage(ctx, lang)
				}
				if err != nil {
					return fmt.Errorf("list flashcards > %w", err)
				}
				printCards(cmd.OutOrStdout(), cards)
				return nil
			})
		},
	}
}

func printCards(out io.Writer, cards []flashcard.Card) {
	if len(cards) == 0 {
		fmt.Fprintln(out, "No flashcards.")
		return
	}
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)
	for _, card := range cards {
		fmt.Fprintf(out, "%4d  %s  %s  %s\n",
			card.ID,
			bold.Sprint(card.Word),
			card.Translation,
			dim.Sprintf("[%s, %d%% of %d, next %s]", card.Language, card.Accuracy(), card.ReviewCount, card.NextReviewAt.Format("2006-01-02")),
		)
	}
}

func newFlashcardsAddCommand() *cobra.Command {
	var (
		cardContext string
		describe    bool
	)
	command := &cobra.Command{
		Use:   "add <word> <translation>",
		Short: "Add a flashcard by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				lang := languageFlag(cmd, a)
				if lang == "" {
					return errors.New("--language all cannot be used to add a card")
				}
				exists, err := a.store.Exists(ctx, args[0], lang)
				if err != nil {
					return fmt.Errorf("store.Exists() > %w", err)
				}
				if exists {
					return fmt.Errorf("%q is already a flashcard", args[0])
				}

				card := flashcard.NewCard(args[0], args[1], lang, time.Now())
				card.Context = cardContext
				card.Confidence = 100
				if describe {
					a.enricher.Describe(ctx, &card)
				}
				id, err := a.store.Add(ctx, &card)
				if err != nil {
					return fmt.Errorf("store.Add() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added flashcard %d: %s = %s\n", id, card.Word, card.Translation)
				return nil
			})
		},
	}
	command.Flags().StringVar(&cardContext, "context", "", "sentence the word appeared in")
	command.Flags().BoolVar(&describe, "describe", false, "generate a one sentence description")
	return command
}

func newFlashcardsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a flashcard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid flashcard id %q", args[0])
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.store.Delete(ctx, id); err != nil {
					return fmt.Errorf("store.Delete(%d) > %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted flashcard %d\n", id)
				return nil
			})
		},
	}
}

func newFlashcardsExportCommand() *cobra.Command {
	format := formatJSON
	var output string

	command := &cobra.Command{
		Use:   "export",
		Short: "Export flashcards as JSON, a markdown study sheet or a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == formatPDF && output == "" {
				return errors.New("--output is required for pdf")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				lang := languageFlag(cmd, a)
				var data []byte
				switch format {
				case formatJSON:
					exported, err := flashcard.Export(ctx, a.store, lang)
					if err != nil {
						return fmt.Errorf("flashcard.Export() > %w", err)
					}
					data = exported
				default:
					cards, err := a.store.ByLanguage(ctx, lang)
					if err != nil {
						return fmt.Errorf("store.ByLanguage() > %w", err)
					}
					data = flashcard.RenderMarkdown("Flashcards", cards)
				}

				if format == formatPDF {
					path, err := pdf.Write(output, data)
					if err != nil {
						return fmt.Errorf("pdf.Write() > %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
					return nil
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0644); err != nil {
					return fmt.Errorf("os.WriteFile(%s) > %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
				return nil
			})
		},
	}
	command.Flags().Var(&format, "format", "json, md or pdf")
	command.Flags().StringVarP(&output, "output", "o", "", "output file (default is stdout)")
	return command
}

func newFlashcardsImportCommand() *cobra.Command {
	var replace bool
	command := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import flashcards exported as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("os.ReadFile(%s) > %w", args[0], err)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				count, err := flashcard.Import(ctx, a.store, data, !replace, time.Now())
				if err != nil {
					return fmt.Errorf("flashcard.Import() > %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d flashcards\n", count)
				return nil
			})
		},
	}
	command.Flags().BoolVar(&replace, "replace", false, "replace every card instead of merging")
	return command
}

func newFlashcardsStatsCommand() *cobra.Command {
	var year, month int
	command := &cobra.Command{
		Use:   "stats",
		Short: "Show flashcard counts, accuracy and monthly progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				lang := languageFlag(cmd, a)
				now := time.Now()
				cardStats, err := flashcard.GetStats(ctx, a.store, lang, now)
				if err != nil {
					return fmt.Errorf("flashcard.GetStats() > %w", err)
				}
				history, err := a.tracker.History(ctx)
				if err != nil {
					return fmt.Errorf("tracker.History() > %w", err)
				}
				cards, err := a.store.ByLanguage(ctx, lang)
				if err != nil {
					return fmt.Errorf("store.ByLanguage() > %w", err)
				}
				printStats(cmd.OutOrStdout(), cardStats, history.Stats,
					statistics.CalculateStatistics(history.Attempts, cards, year, month))
				return nil
			})
		},
	}
	command.Flags().IntVar(&year, "year", 0, "only this year")
	command.Flags().IntVar(&month, "month", 0, "only this month (1-12)")
	return command
}

func printStats(out io.Writer, cards flashcard.Stats, overall statistics.Stats, result statistics.StatisticsResult) {
	bold := color.New(color.Bold)
	fmt.Fprintf(out, "%s %d cards, %d due\n", bold.Sprint("Flashcards:"), cards.Total, cards.Due)
	fmt.Fprintf(out, "%s %d answers, %d%% correct, streak %d\n", bold.Sprint("Overall:"), overall.Total, overall.Accuracy(), overall.Streak)
	if len(result.Periods) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-8s %9s %9s %9s %9s\n", "Period", "New", "Reviewed", "Answers", "Correct")
	for _, period := range result.Periods {
		fmt.Fprintf(out, "%-8s %9d %9d %9d %8d%%\n", period.Period, period.NewWords, period.Reviewed, period.Attempts, period.Accuracy())
	}
	fmt.Fprintln(out, strings.Repeat("-", 48))
	total := statistics.PeriodStatistics{Attempts: result.Aggregate.Attempts, Correct: result.Aggregate.Correct}
	fmt.Fprintf(out, "%-8s %9d %9d %9d %8d%%\n", "Total", result.Aggregate.NewWords, result.Aggregate.Reviewed, result.Aggregate.Attempts, total.Accuracy())
}

func newFlashcardsReviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review the flashcards that are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				review, err := cli.NewFlashcardReviewCLI(ctx, a.store, a.grader, a.tracker, languageFlag(cmd, a))
				if err != nil {
					return err
				}
				if count := review.GetCardCount(); count > 0 {
					fmt.Printf("Starting review with %d cards\n\n", count)
				}
				return review.Run(ctx, review)
			})
		},
	}
}
