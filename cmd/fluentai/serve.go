package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/fluentai/internal/bootstrap"
	"github.com/at-ishikawa/fluentai/internal/server"
)

func newServeCommand() *cobra.Command {
	var port int

	command := &cobra.Command{
		Use:   "serve",
		Short: "Serve the popup API for flashcards, translation, grading, quizzes and statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("newApp() > %w", err)
			}

			srv := server.New(server.Options{
				NativeLanguage: cfg.Languages.Native,
				TargetLanguage: cfg.Languages.Target,
				AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
			}, server.Dependencies{
				Store:        a.store,
				Words:        a.words,
				Sentences:    a.sentences,
				Grader:       a.grader,
				Engine:       a.engine,
				Tracker:      a.tracker,
				Capabilities: a.capabilities,
			})
			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           h2c.NewHandler(srv.Router(), &http2.Server{}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			bootstrapApp := bootstrap.New()
			bootstrapApp.AddCloser("app", a)
			bootstrapApp.AddShutdownHook("http server", httpServer.Shutdown)
			return bootstrapApp.Run(cmd.Context(), func(ctx context.Context) error {
				slog.Default().Info("starting server", "addr", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("httpServer.ListenAndServe() > %w", err)
				}
				return nil
			})
		},
	}
	command.Flags().IntVar(&port, "port", 0, "port to listen on (default from config)")
	return command
}
