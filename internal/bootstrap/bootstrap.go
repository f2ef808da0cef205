// Package bootstrap runs a command until it finishes or the process is signalled,
// then releases its resources.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const DefaultShutdownTimeout = 10 * time.Second

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// App owns the shutdown hooks of one command.
type App struct {
	mu              sync.Mutex
	hooks           []hook
	shutdownTimeout time.Duration
}

func New() *App {
	return &App{shutdownTimeout: DefaultShutdownTimeout}
}

func (a *App) WithShutdownTimeout(timeout time.Duration) *App {
	a.shutdownTimeout = timeout
	return a
}

// AddShutdownHook registers fn under name. Hooks run in reverse order of registration.
func (a *App) AddShutdownHook(name string, fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, hook{name: name, fn: fn})
}

// AddCloser registers a Close method as a shutdown hook.
func (a *App) AddCloser(name string, closer interface{ Close() error }) {
	a.AddShutdownHook(name, func(context.Context) error {
		return closer.Close()
	})
}

// Run executes run until it returns or the process receives SIGINT or SIGTERM.
// The shutdown hooks run in both cases; run's error is returned alongside theirs.
func (a *App) Run(ctx context.Context, run func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Default().Info("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer shutdownCancel()
	return errors.Join(runErr, a.shutdown(shutdownCtx))
}

func (a *App) shutdown(ctx context.Context) error {
	a.mu.Lock()
	hooks := a.hooks
	a.hooks = nil
	a.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		slog.Default().Debug("running shutdown hook", "name", hooks[i].name)
		if err := hooks[i].fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s > %w", hooks[i].name, err))
		}
	}
	return errors.Join(errs...)
}
