package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/at-ishikawa/fluentai/internal/bridge"
	"github.com/at-ishikawa/fluentai/internal/inference"
	"github.com/at-ishikawa/fluentai/internal/language"
)

// ModelCatalog lists the models a local model server has on disk.
type ModelCatalog interface {
	ListModels(ctx context.Context) ([]string, error)
}

var (
	errTranslatorUnavailable = errors.New("Translator not available")
	errDetectorUnavailable   = errors.New("Language detector not available")
	errWriterUnavailable     = errors.New("Writer not available")
)

// Service answers capability actions with a local model server.
type Service struct {
	client  inference.Client
	catalog ModelCatalog
	model   string
}

func NewService(client inference.Client, catalog ModelCatalog, model string) *Service {
	return &Service{client: client, catalog: catalog, model: model}
}

// Register installs every capability action on host.
func (s *Service) Register(host *bridge.Host) {
	host.Handle(ActionCheckCapabilities, s.checkCapabilities)
	host.Handle(ActionCheckReadiness, s.checkReadiness)
	host.Handle(ActionTranslate, s.translate)
	host.Handle(ActionDetectLanguage, s.detectLanguage)
	host.Handle(ActionGenerate, s.generate)
}

// Availability reports whether the configured model can be used right away.
func (s *Service) Availability(ctx context.Context) Availability {
	models, err := s.catalog.ListModels(ctx)
	if err != nil {
		return AvailabilityUnavailable
	}
	for _, model := range models {
		if model == s.model || strings.TrimSuffix(model, ":latest") == s.model {
			return AvailabilityReadily
		}
	}
	return AvailabilityAfterDownload
}

// Descriptor reports every capability as present when the model server answers.
func (s *Service) Descriptor(ctx context.Context) Descriptor {
	if s.Availability(ctx) == AvailabilityUnavailable {
		return Descriptor{}
	}
	return Descriptor{Translator: true, LanguageDetector: true, Writer: true}
}

func decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("json.Unmarshal(%s) > %w", payload, err)
	}
	return v, nil
}

func (s *Service) checkCapabilities(ctx context.Context, _ json.RawMessage) (any, error) {
	return CapabilitiesResponse{Success: true, APIs: s.Descriptor(ctx)}, nil
}

func (s *Service) checkReadiness(ctx context.Context, payload json.RawMessage) (any, error) {
	pair, err := decode[LanguagePair](payload)
	if err != nil {
		return nil, err
	}
	if !language.Supported(pair.SourceLanguage) || !language.Supported(pair.TargetLanguage) {
		return ReadinessResponse{Success: true, Status: AvailabilityUnavailable, Message: AvailabilityUnavailable.Message()}, nil
	}
	status := s.Availability(ctx)
	if status == AvailabilityUnavailable {
		return nil, errTranslatorUnavailable
	}
	return ReadinessResponse{
		Success: true,
		Ready:   status == AvailabilityReadily,
		Status:  status,
		Message: status.Message(),
	}, nil
}

func (s *Service) translate(ctx context.Context, payload json.RawMessage) (any, error) {
	p, err := decode[TranslatePayload](payload)
	if err != nil {
		return nil, err
	}
	if p.SourceLanguage == "" {
		p.SourceLanguage = "en"
	}
	if p.TargetLanguage == "" {
		p.TargetLanguage = "es"
	}
	translation, err := s.client.Translate(ctx, inference.TranslateRequest{
		Text:           p.Text,
		SourceLanguage: p.SourceLanguage,
		TargetLanguage: p.TargetLanguage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errTranslatorUnavailable, err)
	}
	return TranslateResponse{Success: true, Translation: translation}, nil
}

const detectPrompt = `Identify the language of the following text.
Respond with JSON only: {"language": "<ISO 639-1 code>", "confidence": <0.0-1.0>}

Text: %q`

func (s *Service) detectLanguage(ctx context.Context, payload json.RawMessage) (any, error) {
	p, err := decode[DetectPayload](payload)
	if err != nil {
		return nil, err
	}
	content, err := s.client.Generate(ctx, inference.GenerateRequest{
		Prompt:      fmt.Sprintf(detectPrompt, p.Text),
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDetectorUnavailable, err)
	}
	var detected struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	}
	if err := inference.DecodeJSON(content, &detected); err != nil {
		return nil, err
	}
	return DetectResponse{
		Success: true,
		Results: []Detection{{
			DetectedLanguage: language.Base(detected.Language),
			Confidence:       detected.Confidence,
		}},
	}, nil
}

func (s *Service) generate(ctx context.Context, payload json.RawMessage) (any, error) {
	p, err := decode[GeneratePayload](payload)
	if err != nil {
		return nil, err
	}
	content, err := s.client.Generate(ctx, inference.GenerateRequest{
		Prompt:       p.Prompt,
		SystemPrompt: p.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errWriterUnavailable, err)
	}
	return GenerateResponse{Success: true, Content: content}, nil
}
