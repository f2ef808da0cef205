package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/at-ishikawa/fluentai/internal/bridge"
	"github.com/at-ishikawa/fluentai/internal/capability"
	"github.com/at-ishikawa/fluentai/internal/config"
	"github.com/at-ishikawa/fluentai/internal/database"
	"github.com/at-ishikawa/fluentai/internal/flashcard"
	"github.com/at-ishikawa/fluentai/internal/grader"
	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/at-ishikawa/fluentai/internal/inference/gemini"
	"github.com/at-ishikawa/fluentai/internal/inference/openai"
	"github.com/at-ishikawa/fluentai/internal/quiz"
	"github.com/at-ishikawa/fluentai/internal/statistics"
	"github.com/at-ishikawa/fluentai/internal/translation"
	"github.com/at-ishikawa/fluentai/internal/vocabulary"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("loader.Load() > %w", err)
	}
	return cfg, nil
}

type closer struct {
	name string
	fn   func() error
}

// app holds every collaborator a command may need. Commands only touch what they use.
type app struct {
	cfg          *config.Config
	bridge       *bridge.Client
	capabilities *capability.Negotiator
	readiness    *translation.Readiness
	words        *translation.Chain
	sentences    *translation.Chain
	cloud        inference.Client
	grader       *grader.Grader
	store        flashcard.Store
	tracker      *statistics.Tracker
	engine       *quiz.Engine
	enricher     *vocabulary.Enricher

	closeOnce sync.Once
	closers   []closer
}

// newApp wires the provider tiers, the flashcard store and the statistics tracker.
// The on-device capabilities are served in-process by a bridge host backed by the
// local model server.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	local := openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model, inference.DefaultMaxRetryAttempts)
	a.addCloser("openai", local.Close)

	client := startLocalBridge(ctx, a, local, cfg)
	a.bridge = client
	a.capabilities = capability.NewNegotiator(client)
	a.readiness = translation.NewReadiness(client, cfg.Translator.ReadinessInterval, cfg.Translator.ReadinessTimeout)

	if cfg.Gemini.APIKey != "" {
		cloud := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, inference.DefaultMaxRetryAttempts)
		a.addCloser("gemini", cloud.Close)
		a.cloud = cloud
	}

	translator := translation.NewOnDeviceTranslator(client, a.capabilities)
	writer := translation.NewOnDeviceWriter(client, a.capabilities)
	cloudTier := translation.NewCloud(a.cloud)
	a.words = translation.NewWordChain(translator, writer, cloudTier)
	a.sentences = translation.NewSentenceChain(translator, cloudTier)

	var validator grader.Validator
	if a.cloud != nil && cfg.Grading.UseGeminiValidation {
		validator = a.cloud
	}
	a.grader = grader.New(validator, grader.Options{
		AcceptThreshold:    cfg.Grading.AcceptThreshold,
		CloseThreshold:     cfg.Grading.CloseThreshold,
		SemanticValidation: cfg.Grading.UseGeminiValidation,
	})

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("openStore() > %w", err)
	}
	a.store = store
	a.tracker = statistics.NewTracker(statistics.NewFileRepository(cfg.Statistics.Path))

	generators := []quiz.Generator{quiz.WriterGenerator(client, a.capabilities)}
	describers := []vocabulary.Describer{vocabulary.NewWriterDescriber(client, a.capabilities)}
	if a.cloud != nil {
		generators = append(generators, quiz.CloudGenerator(a.cloud))
		describers = append(describers, vocabulary.NewCloudDescriber(a.cloud))
	}
	a.engine = quiz.NewEngine(a.grader, cfg.Languages.Native, cfg.Languages.Target,
		quiz.WithGenerators(generators...),
		quiz.WithTranslator(a.words),
	)
	a.enricher = vocabulary.NewEnricher(a.words, a.readiness, cfg.Vocabulary.MinConfidence, describers...)

	slog.Default().Debug("application ready",
		"storage", cfg.Storage.Driver,
		"words", a.words.Providers(),
		"sentences", a.sentences.Providers(),
		"semanticValidation", a.grader.CanValidateSemantically(),
	)
	return a, nil
}

// startLocalBridge serves the capability actions over an in-memory pipe.
func startLocalBridge(ctx context.Context, a *app, local *openai.Client, cfg *config.Config) *bridge.Client {
	host := bridge.NewHost()
	capability.NewService(local, local, cfg.OpenAI.Model).Register(host)

	clientConn, hostConn := bridge.Pipe()
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := host.Serve(ctx, hostConn); err != nil {
			slog.Default().Warn("bridge host stopped", "error", err)
		}
	}()

	client := bridge.NewClient(clientConn,
		bridge.WithReadyTimeout(cfg.Bridge.ReadyTimeout),
		bridge.WithRequestTimeout(cfg.Bridge.RequestTimeout),
	)
	go func() {
		defer wg.Done()
		if err := client.Run(ctx); err != nil {
			slog.Default().Warn("bridge client stopped", "error", err)
		}
	}()

	a.addCloser("bridge", func() error {
		cancel()
		err := client.Close()
		wg.Wait()
		return err
	})
	return client
}

func (a *app) openStore(ctx context.Context) (flashcard.Store, error) {
	if a.cfg.Storage.Driver == "yaml" {
		return flashcard.NewYAMLStore(a.cfg.Storage.Path), nil
	}
	db, err := database.Connect(a.cfg.Storage, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database.Connect() > %w", err)
	}
	a.addCloser("database", db.Close)
	if err := database.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("database.Migrate() > %w", err)
	}
	return flashcard.NewDBStore(db), nil
}

func (a *app) addCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i].fn(); err != nil {
				errs = append(errs, fmt.Errorf("%s > %w", a.closers[i].name, err))
			}
		}
	})
	return errors.Join(errs...)
}

// withApp loads the configuration, builds the app and closes it after fn.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("newApp() > %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Default().Warn("failed to release resources", "error", closeErr)
		}
	}()
	return fn(ctx, a)
}
