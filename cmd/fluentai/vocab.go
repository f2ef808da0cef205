package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/fluentai/internal/session"
	"github.com/at-ishikawa/fluentai/internal/transcript"
	"github.com/at-ishikawa/fluentai/internal/vocabulary"
)

func newVocabCommand() *cobra.Command {
	var (
		save       bool
		describe   bool
		difficulty string
		maxWords   int
	)

	command := &cobra.Command{
		Use:   "vocab <caption-file>",
		Short: "Pick study words from a caption file and translate them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				segments, err := transcript.FileSource{Path: args[0]}.Extract(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", session.UserMessage(err), err)
				}

				level := vocabulary.Difficulty(a.cfg.Vocabulary.Difficulty)
				if difficulty != "" {
					level = vocabulary.Difficulty(difficulty)
				}
				limit := a.cfg.Vocabulary.MaxWords
				if maxWords > 0 {
					limit = maxWords
				}
				target, native := a.cfg.Languages.Target, a.cfg.Languages.Native

				candidates, err := vocabulary.Extract(ctx, segments, level, func(ctx context.Context, word string) (bool, error) {
					return a.store.Exists(ctx, word, target)
				}, limit)
				if err != nil {
					return fmt.Errorf("vocabulary.Extract() > %w", err)
				}
				if len(candidates) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No new words found.")
					return nil
				}

				out := cmd.OutOrStdout()
				cards := a.enricher.Build(ctx, candidates, target, native, time.Now(), func(done, total int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "\rTranslating %d/%d", done, total)
				})
				fmt.Fprintln(cmd.ErrOrStderr())

				bold := color.New(color.Bold)
				for i := range cards {
					if describe {
						a.enricher.Describe(ctx, &cards[i])
					}
					card := cards[i]
					fmt.Fprintf(out, "%s  %s  (%s, %d%%)\n", bold.Sprint(card.Word), card.Translation, card.Source, card.Confidence)
					if card.Description != "" {
						fmt.Fprintf(out, "    %s\n", card.Description)
					}
				}
				if dropped := len(candidates) - len(cards); dropped > 0 {
					fmt.Fprintf(out, "%d words were dropped for low confidence.\n", dropped)
				}

				if !save || len(cards) == 0 {
					return nil
				}
				count, err := a.store.AddAll(ctx, cards)
				if err != nil {
					return fmt.Errorf("store.AddAll() > %w", err)
				}
				fmt.Fprintf(out, "Saved %d flashcards.\n", count)
				return nil
			})
		},
	}

	command.Flags().BoolVar(&save, "save", false, "save the words as flashcards")
	command.Flags().BoolVar(&describe, "describe", false, "add a one sentence description to every word")
	command.Flags().StringVar(&difficulty, "difficulty", "", "beginner, intermediate or advanced (default from config)")
	command.Flags().IntVar(&maxWords, "max", 0, "maximum number of words (default from config)")
	return command
}
