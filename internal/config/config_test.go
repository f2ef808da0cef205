package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

type fakeSecretStore struct {
	key string
	err error
}

func (s fakeSecretStore) GeminiAPIKey() (string, error) {
	return s.key, s.err
}

func defaultConfig() *Config {
	return &Config{
		Languages: LanguagesConfig{Native: "en", Target: "es"},
		Playback: PlaybackConfig{
			AutoTranslate:        true,
			PauseDelay:           1.0,
			PollInterval:         300 * time.Millisecond,
			TriggerSlack:         0.5,
			AutoPlayAfterCorrect: true,
			AutoAdvanceDelay:     1500 * time.Millisecond,
		},
		Grading: GradingConfig{
			UseGeminiValidation: true,
			AcceptThreshold:     0.9,
			CloseThreshold:      0.6,
		},
		Gemini: GeminiConfig{Model: "gemini-2.5-flash"},
		OpenAI: OpenAIConfig{Model: "llama3.2", BaseURL: "http://localhost:11434/v1"},
		Bridge: BridgeConfig{
			ReadyTimeout:   5 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Translator: TranslatorConfig{
			ReadinessInterval: time.Second,
			ReadinessTimeout:  time.Minute,
		},
		Vocabulary: VocabularyConfig{
			Difficulty:    "intermediate",
			MaxWords:      30,
			MinConfidence: 70,
		},
		Notifications: NotificationsConfig{QuizFrequency: 30},
		Storage:       StorageConfig{Driver: "sqlite3", Path: "fluentai.db"},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			Database: "fluentai",
			Username: "user",
		},
		Statistics: StatisticsConfig{Path: "stats.yml"},
		Server: ServerConfig{
			Port: 8080,
			CORS: CORSConfig{AllowedOrigins: []string{"chrome-extension://*", "http://localhost:3000"}},
		},
	}
}

func TestConfigLoader_Load(t *testing.T) {
	tests := []struct {
		name              string
		configContent     string
		env               map[string]string
		secrets           SecretStore
		want              func() *Config
		wantErrorContains []string
	}{
		{
			name:          "no config file uses defaults",
			configContent: "",
			secrets:       fakeSecretStore{err: ErrSecretNotFound},
			want:          defaultConfig,
		},
		{
			name: "custom values",
			configContent: `languages:
  native: fr
  target: de
playback:
  pause_delay: 0.5
  poll_interval: 200ms
  auto_play_after_correct: false
grading:
  use_gemini_validation: false
gemini:
  api_key: AIzaFromFile
storage:
  driver: yaml
  path: cards.yml
`,
			secrets: fakeSecretStore{key: "AIzaFromKeyring"},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Languages = LanguagesConfig{Native: "fr", Target: "de"}
				cfg.Playback.PauseDelay = 0.5
				cfg.Playback.PollInterval = 200 * time.Millisecond
				cfg.Playback.AutoPlayAfterCorrect = false
				cfg.Grading.UseGeminiValidation = false
				cfg.Gemini.APIKey = "AIzaFromFile"
				cfg.Storage = StorageConfig{Driver: "yaml", Path: "cards.yml"}
				return cfg
			},
		},
		{
			name:          "environment variables override secrets",
			configContent: "",
			env: map[string]string{
				"GEMINI_API_KEY": "AIzaFromEnv",
				"DB_PASSWORD":    "secret",
			},
			secrets: fakeSecretStore{key: "AIzaFromKeyring"},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Gemini.APIKey = "AIzaFromEnv"
				cfg.Database.Password = "secret"
				return cfg
			},
		},
		{
			name:          "keyring is used when no key is configured",
			configContent: "",
			secrets:       fakeSecretStore{key: "AIzaFromKeyring"},
			want: func() *Config {
				cfg := defaultConfig()
				cfg.Gemini.APIKey = "AIzaFromKeyring"
				return cfg
			},
		},
		{
			name:          "keyring failure is ignored",
			configContent: "",
			secrets:       fakeSecretStore{err: errors.New("dbus unavailable")},
			want:          defaultConfig,
		},
		{
			name: "same native and target language",
			configContent: `languages:
  native: es
  target: es
`,
			secrets:           fakeSecretStore{err: ErrSecretNotFound},
			wantErrorContains: []string{"invalid configuration", "target"},
		},
		{
			name: "unsupported language",
			configContent: `languages:
  target: xx
`,
			secrets:           fakeSecretStore{err: ErrSecretNotFound},
			wantErrorContains: []string{"languages.target must be a supported language code"},
		},
		{
			name: "gemini key without the expected prefix",
			configContent: `gemini:
  api_key: sk-not-gemini
`,
			secrets:           fakeSecretStore{err: ErrSecretNotFound},
			wantErrorContains: []string{"gemini.api_key must be a Gemini API key starting with AIza"},
		},
		{
			name: "poll interval out of range",
			configContent: `playback:
  poll_interval: 2s
`,
			secrets:           fakeSecretStore{err: ErrSecretNotFound},
			wantErrorContains: []string{"invalid configuration", "poll_interval"},
		},
		{
			name: "close threshold above accept threshold",
			configContent: `grading:
  accept_threshold: 0.5
  close_threshold: 0.7
`,
			secrets:           fakeSecretStore{err: ErrSecretNotFound},
			wantErrorContains: []string{"invalid configuration", "close_threshold"},
		},
		{
			name: "unknown storage driver",
			configContent: `storage:
  driver: postgres
`,
			secrets:           fakeSecretStore{err: ErrSecretNotFound},
			wantErrorContains: []string{"invalid configuration", "driver"},
		},
		{
			name: "invalid YAML format",
			configContent: `languages:
  native: en
  invalid yaml format here [[[
`,
			secrets: fakeSecretStore{err: ErrSecretNotFound},
			wantErrorContains: []string{
				"configuration file found but could not be read",
				"Please check the file format and permissions",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			t.Setenv("HOME", tempDir)
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("OPENAI_API_KEY", "")
			t.Setenv("OPENAI_BASE_URL", "")
			t.Setenv("DB_PASSWORD", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var configPath string
			if tt.configContent != "" {
				configPath = filepath.Join(tempDir, "config.yml")
				require.NoError(t, os.WriteFile(configPath, []byte(tt.configContent), 0644))
			} else {
				t.Chdir(tempDir)
			}

			loader, err := NewConfigLoader(configPath)
			require.NoError(t, err)
			got, err := loader.WithSecretStore(tt.secrets).Load()

			if len(tt.wantErrorContains) > 0 {
				require.Error(t, err)
				assert.Nil(t, got)
				for _, wantMsg := range tt.wantErrorContains {
					assert.Contains(t, err.Error(), wantMsg)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want(), got)
		})
	}
}

func TestKeyring(t *testing.T) {
	keyring.MockInit()
	store := Keyring{}

	_, err := store.GeminiAPIKey()
	assert.ErrorIs(t, err, ErrSecretNotFound)

	assert.Error(t, store.SaveGeminiAPIKey("sk-123"))
	require.NoError(t, store.SaveGeminiAPIKey("  AIzaSecret "))

	got, err := store.GeminiAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "AIzaSecret", got)

	require.NoError(t, store.DeleteGeminiAPIKey())
	require.NoError(t, store.DeleteGeminiAPIKey())
	_, err = store.GeminiAPIKey()
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abcd"))
	assert.Equal(t, "********6789", MaskSecret("AIza123456789"))
}
