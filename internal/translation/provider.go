package translation

import (
	"context"
	"errors"
	"fmt"

	"github.com/at-ishikawa/fluentai/internal/capability"
	"github.com/at-ishikawa/fluentai/internal/inference"
)

const (
	NameOnDeviceTranslator = "on-device-translator"
	NameOnDeviceWriter     = "on-device-writer"
	NameCloud              = "cloud-gemini"

	ConfidenceOnDeviceTranslator = 80
	ConfidenceOnDeviceWriter     = 75
	ConfidenceCloud              = 90
)

// Capabilities reports what the bridge host can do.
type Capabilities interface {
	Descriptor(ctx context.Context) capability.Descriptor
}

// OnDeviceTranslator uses the bridge's translate action.
type OnDeviceTranslator struct {
	requester    capability.Requester
	capabilities Capabilities
}

func NewOnDeviceTranslator(requester capability.Requester, capabilities Capabilities) *OnDeviceTranslator {
	return &OnDeviceTranslator{requester: requester, capabilities: capabilities}
}

func (p *OnDeviceTranslator) Name() string    { return NameOnDeviceTranslator }
func (p *OnDeviceTranslator) Confidence() int { return ConfidenceOnDeviceTranslator }

func (p *OnDeviceTranslator) Available(ctx context.Context) bool {
	return p.capabilities.Descriptor(ctx).Translator
}

func (p *OnDeviceTranslator) Attempt(ctx context.Context, request Request) (string, error) {
	result := p.requester.Request(ctx, capability.ActionTranslate, capability.TranslatePayload{
		Text:           request.Text,
		SourceLanguage: request.SourceLanguage,
		TargetLanguage: request.TargetLanguage,
	})
	if !result.Success {
		return "", fmt.Errorf("bridge %s > %s", capability.ActionTranslate, result.Error)
	}
	var response capability.TranslateResponse
	if err := result.Decode(&response); err != nil {
		return "", fmt.Errorf("result.Decode() > %w", err)
	}
	return response.Translation, nil
}

// OnDeviceWriter asks the general purpose on-device writer for a one word answer.
type OnDeviceWriter struct {
	requester    capability.Requester
	capabilities Capabilities
}

func NewOnDeviceWriter(requester capability.Requester, capabilities Capabilities) *OnDeviceWriter {
	return &OnDeviceWriter{requester: requester, capabilities: capabilities}
}

func (p *OnDeviceWriter) Name() string    { return NameOnDeviceWriter }
func (p *OnDeviceWriter) Confidence() int { return ConfidenceOnDeviceWriter }

func (p *OnDeviceWriter) Available(ctx context.Context) bool {
	return p.capabilities.Descriptor(ctx).Writer
}

func (p *OnDeviceWriter) Attempt(ctx context.Context, request Request) (string, error) {
	content, err := Generate(ctx, p.requester, inference.WordTranslationPrompt(inference.TranslateRequest{
		Text:           request.Text,
		SourceLanguage: request.SourceLanguage,
		TargetLanguage: request.TargetLanguage,
	}))
	if err != nil {
		return "", err
	}
	return inference.CleanTranslation(content), nil
}

// Generate runs prompt through the bridge's generate action.
func Generate(ctx context.Context, requester capability.Requester, prompt string) (string, error) {
	result := requester.Request(ctx, capability.ActionGenerate, capability.GeneratePayload{Prompt: prompt})
	if !result.Success {
		return "", fmt.Errorf("bridge %s > %s", capability.ActionGenerate, result.Error)
	}
	var response capability.GenerateResponse
	if err := result.Decode(&response); err != nil {
		return "", fmt.Errorf("result.Decode() > %w", err)
	}
	return response.Content, nil
}

var errCloudNotConfigured = errors.New("cloud translation is not configured")

// Cloud translates with a remote model. A nil client disables it.
type Cloud struct {
	client inference.Client
}

func NewCloud(client inference.Client) *Cloud {
	return &Cloud{client: client}
}

func (p *Cloud) Name() string    { return NameCloud }
func (p *Cloud) Confidence() int { return ConfidenceCloud }

func (p *Cloud) Available(context.Context) bool {
	return p.client != nil
}

func (p *Cloud) Attempt(ctx context.Context, request Request) (string, error) {
	if p.client == nil {
		return "", errCloudNotConfigured
	}
	translation, err := p.client.Translate(ctx, inference.TranslateRequest{
		Text:           request.Text,
		SourceLanguage: request.SourceLanguage,
		TargetLanguage: request.TargetLanguage,
	})
	if err != nil {
		return "", fmt.Errorf("client.Translate() > %w", err)
	}
	return translation, nil
}
