package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	debugMode  bool
	logFile    string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var closeLog func() error

	rootCmd := &cobra.Command{
		Use:           "fluentai",
		Short:         "Learn a language by translating the subtitles of what you watch",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("godotenv.Load() > %w", err)
			}
			var out io.Writer = os.Stderr
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("os.OpenFile(%s) > %w", logFile, err)
				}
				out = f
				closeLog = f.Close
			}
			setupLogger(debugMode, out)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yml or $HOME/.config/fluentai/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(
		newWatchCommand(),
		newTranslateCommand(),
		newVocabCommand(),
		newFlashcardsCommand(),
		newQuizCommand(),
		newServeCommand(),
		newBridgeCommand(),
		newAuthCommand(),
		newConfigCommand(),
	)
	return rootCmd
}

func setupLogger(debug bool, out io.Writer) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})))
}
