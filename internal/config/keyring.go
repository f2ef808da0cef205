package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService    = "fluentai"
	keyringGeminiUser = "gemini_api_key"
	geminiKeyPrefix   = "AIza"
)

var ErrSecretNotFound = errors.New("secret not found")

// Keyring reads and writes secrets in the OS keyring.
type Keyring struct{}

func (Keyring) GeminiAPIKey() (string, error) {
	key, err := keyring.Get(keyringService, keyringGeminiUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("keyring.Get() > %w", err)
	}
	return key, nil
}

// SaveGeminiAPIKey validates and stores the key for later runs.
func (Keyring) SaveGeminiAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if !IsGeminiAPIKey(key) {
		return fmt.Errorf("invalid Gemini API key: it must start with %q", geminiKeyPrefix)
	}
	if err := keyring.Set(keyringService, keyringGeminiUser, key); err != nil {
		return fmt.Errorf("keyring.Set() > %w", err)
	}
	return nil
}

func (Keyring) DeleteGeminiAPIKey() error {
	if err := keyring.Delete(keyringService, keyringGeminiUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring.Delete() > %w", err)
	}
	return nil
}

// IsGeminiAPIKey reports whether key looks like a Google AI Studio key.
func IsGeminiAPIKey(key string) bool {
	return strings.HasPrefix(key, geminiKeyPrefix) && len(key) > len(geminiKeyPrefix)
}

// MaskSecret keeps only the last four characters visible.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "********" + secret[len(secret)-4:]
}
