// Package capability describes the model-backed actions served over the bridge.
package capability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/at-ishikawa/fluentai/internal/bridge"
)

const (
	ActionCheckCapabilities = "checkCapabilities"
	ActionCheckReadiness    = "checkReadiness"
	ActionTranslate         = "translate"
	ActionDetectLanguage    = "detectLanguage"
	ActionGenerate          = "generate"
)

// Descriptor reports which on-device capabilities exist.
type Descriptor struct {
	Translator       bool `json:"translator"`
	LanguageDetector bool `json:"languageDetector"`
	Writer           bool `json:"writer"`
}

type Availability string

const (
	AvailabilityReadily       Availability = "readily"
	AvailabilityAfterDownload Availability = "after-download"
	AvailabilityUnavailable   Availability = "unavailable"
)

func (a Availability) Message() string {
	switch a {
	case AvailabilityReadily:
		return "Ready"
	case AvailabilityAfterDownload:
		return "Needs download"
	}
	return "Not available"
}

type CapabilitiesResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	APIs    Descriptor `json:"apis"`
}

type LanguagePair struct {
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type ReadinessResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Ready   bool         `json:"ready"`
	Status  Availability `json:"status"`
	Message string       `json:"message"`
}

type TranslatePayload struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

type TranslateResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	Translation string `json:"translation"`
}

type DetectPayload struct {
	Text string `json:"text"`
}

type Detection struct {
	DetectedLanguage string  `json:"detectedLanguage"`
	Confidence       float64 `json:"confidence"`
}

type DetectResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Results []Detection `json:"results"`
}

type GeneratePayload struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
}

type GenerateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Content string `json:"content"`
}

// Requester is the caller side of the bridge.
type Requester interface {
	Request(ctx context.Context, action string, payload any) bridge.Result
}

// Negotiator asks the host for its capabilities and remembers the first
// successful answer. Failures are retried on the next call.
type Negotiator struct {
	requester Requester

	mu         sync.Mutex
	descriptor *Descriptor
}

func NewNegotiator(requester Requester) *Negotiator {
	return &Negotiator{requester: requester}
}

// Descriptor returns the cached capabilities, or the empty descriptor while
// the host cannot be reached.
func (n *Negotiator) Descriptor(ctx context.Context) Descriptor {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.descriptor != nil {
		return *n.descriptor
	}

	result := n.requester.Request(ctx, ActionCheckCapabilities, struct{}{})
	if !result.Success {
		slog.Default().Warn("capability negotiation failed", "error", result.Error)
		return Descriptor{}
	}
	var response CapabilitiesResponse
	if err := result.Decode(&response); err != nil {
		slog.Default().Warn("capability negotiation failed", "error", err)
		return Descriptor{}
	}
	n.descriptor = &response.APIs
	slog.Default().Info("negotiated capabilities",
		"translator", response.APIs.Translator,
		"languageDetector", response.APIs.LanguageDetector,
		"writer", response.APIs.Writer,
	)
	return response.APIs
}
