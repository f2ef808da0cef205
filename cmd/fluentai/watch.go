package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/fluentai/internal/player"
	"github.com/at-ishikawa/fluentai/internal/session"
	"github.com/at-ishikawa/fluentai/internal/transcript"
	"github.com/at-ishikawa/fluentai/internal/tui"
)

// trailingSeconds keeps the clock running after the last subtitle so its review can trigger.
const trailingSeconds = 10

func newWatchCommand() *cobra.Command {
	var autoPause bool

	command := &cobra.Command{
		Use:   "watch <caption-file>",
		Short: "Play a caption file and translate every subtitle when playback pauses",
		Long: `Play a caption file (.vtt, .srt or .yml) on a simulated player.
Playback pauses shortly after each subtitle ends and waits for your translation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				segments, err := transcript.FileSource{Path: args[0]}.Extract(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", session.UserMessage(err), err)
				}

				duration := segments[len(segments)-1].End + trailingSeconds
				video := player.NewSimulated(player.WithDuration(duration))
				s := session.New(session.SettingsFromConfig(a.cfg), video, a.sentences, a.grader,
					session.WithRecorder(a.tracker),
					session.WithStore(a.store),
				)
				defer func() {
					_ = s.Close()
				}()
				if !autoPause {
					s.ToggleAutoPause()
				}

				loaded, err := s.Load(ctx, transcript.Static(segments))
				if err != nil {
					return fmt.Errorf("session.Load() > %w", err)
				}
				return tui.Run(ctx, s, video, loaded)
			})
		},
	}

	command.Flags().BoolVar(&autoPause, "auto-pause", true, "pause after every subtitle")
	return command
}
