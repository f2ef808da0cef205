package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/fluentai/internal/translation"
)

func newTranslateCommand() *cobra.Command {
	var (
		word bool
		from string
		to   string
	)

	command := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate text with the first available provider",
		Long: `Translate text with the provider tiers: the on-device translator first,
then the on-device writer (words only), then Gemini.
Text is translated from the target language into your native language
unless --from or --to say otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				text := strings.Join(args, " ")
				chain := a.sentences
				if word {
					chain = a.words
				}
				source, target := a.cfg.Languages.Target, a.cfg.Languages.Native
				if from != "" {
					source = from
				}
				if to != "" {
					target = to
				}

				result := chain.Translate(ctx, text, source, target)
				if result.Failed {
					return fmt.Errorf("translate %q: %w", text, translation.ErrExhausted)
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Translation)
				fmt.Fprintf(cmd.ErrOrStderr(), "(%s, confidence %d)\n", result.Source, result.Confidence)
				return nil
			})
		},
	}

	command.Flags().BoolVarP(&word, "word", "w", false, "translate a single word with the word tiers")
	command.Flags().StringVar(&from, "from", "", "source language code")
	command.Flags().StringVar(&to, "to", "", "target language code")
	return command
}
