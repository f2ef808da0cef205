package translation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"github.com/at-ishikawa/fluentai/internal/capability"
)

const (
	DefaultReadinessInterval = time.Second
	DefaultReadinessTimeout  = time.Minute
)

var errNotReadyYet = errors.New("translator model is still downloading")

// Readiness waits for the on-device translator to finish downloading a language pair.
type Readiness struct {
	requester capability.Requester
	interval  time.Duration
	timeout   time.Duration
}

func NewReadiness(requester capability.Requester, interval, timeout time.Duration) *Readiness {
	if interval <= 0 {
		interval = DefaultReadinessInterval
	}
	if timeout < interval {
		timeout = DefaultReadinessTimeout
	}
	return &Readiness{requester: requester, interval: interval, timeout: timeout}
}

func (r *Readiness) check(ctx context.Context, sourceLanguage, targetLanguage string) (capability.ReadinessResponse, bool) {
	result := r.requester.Request(ctx, capability.ActionCheckReadiness, capability.LanguagePair{
		SourceLanguage: sourceLanguage,
		TargetLanguage: targetLanguage,
	})
	if !result.Success {
		slog.Default().Debug("translator readiness check failed", "error", result.Error)
		return capability.ReadinessResponse{}, false
	}
	var response capability.ReadinessResponse
	if err := result.Decode(&response); err != nil {
		return capability.ReadinessResponse{}, false
	}
	return response, true
}

// Wait reports whether the translator is ready. Only the after-download status
// is polled; callers go ahead with translating whatever the answer is.
func (r *Readiness) Wait(
	ctx context.Context,
	sourceLanguage, targetLanguage string,
	onProgress func(capability.ReadinessResponse),
) bool {
	response, ok := r.check(ctx, sourceLanguage, targetLanguage)
	if !ok {
		return false
	}
	if onProgress != nil {
		onProgress(response)
	}
	if response.Ready || response.Status != capability.AvailabilityAfterDownload {
		return response.Ready
	}

	attempts := uint(r.timeout / r.interval)
	err := retry.Do(
		func() error {
			response, ok := r.check(ctx, sourceLanguage, targetLanguage)
			if !ok {
				return retry.Unrecoverable(errors.New("readiness check failed"))
			}
			if onProgress != nil {
				onProgress(response)
			}
			if !response.Ready {
				return errNotReadyYet
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(r.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		slog.Default().Warn("translator is not ready, continuing anyway",
			"source", sourceLanguage,
			"target", targetLanguage,
			"error", err,
		)
		return false
	}
	return true
}
