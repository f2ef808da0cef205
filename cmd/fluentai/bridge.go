package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/fluentai/internal/bootstrap"
	"github.com/at-ishikawa/fluentai/internal/bridge"
	"github.com/at-ishikawa/fluentai/internal/capability"
	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/at-ishikawa/fluentai/internal/inference/openai"
)

func newBridgeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "bridge",
		Short: "Bridge commands for the browser extension",
	}
	command.AddCommand(newBridgeHostCommand())
	return command
}

func newBridgeHostCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Answer capability requests on stdin and stdout as a native messaging host",
		Long: `Answer translate, detectLanguage, generate and readiness requests from the
extension with the local model server. Messages are framed as a little-endian
uint32 length followed by JSON. Logs go to stderr or --log-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			local := openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, inference.DefaultMaxRetryAttempts)
			service := capability.NewService(local, local, cfg.OpenAI.Model)
			host := bridge.NewHost()
			service.Register(host)
			conn := bridge.NewStreamConn(os.Stdin, os.Stdout)

			bootstrapApp := bootstrap.New()
			bootstrapApp.AddCloser("openai", local)
			bootstrapApp.AddCloser("stdout", conn)
			return bootstrapApp.Run(cmd.Context(), func(ctx context.Context) error {
				slog.Default().Info("bridge host started",
					"model", cfg.OpenAI.Model,
					"availability", service.Availability(ctx),
					"actions", host.Actions(),
				)
				if err := host.Serve(ctx, conn); err != nil {
					return fmt.Errorf("host.Serve() > %w", err)
				}
				return nil
			})
		},
	}
}
