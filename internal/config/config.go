package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Languages     LanguagesConfig     `mapstructure:"languages" yaml:"languages"`
	Playback      PlaybackConfig      `mapstructure:"playback" yaml:"playback"`
	Grading       GradingConfig       `mapstructure:"grading" yaml:"grading"`
	Gemini        GeminiConfig        `mapstructure:"gemini" yaml:"gemini"`
	OpenAI        OpenAIConfig        `mapstructure:"openai" yaml:"openai"`
	Bridge        BridgeConfig        `mapstructure:"bridge" yaml:"bridge"`
	Translator    TranslatorConfig    `mapstructure:"translator" yaml:"translator"`
	Vocabulary    VocabularyConfig    `mapstructure:"vocabulary" yaml:"vocabulary"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Storage       StorageConfig       `mapstructure:"storage" yaml:"storage"`
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Statistics    StatisticsConfig    `mapstructure:"statistics" yaml:"statistics"`
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
}

// LanguagesConfig holds the learner's native language and the language being learned.
type LanguagesConfig struct {
	Native string `mapstructure:"native" yaml:"native" validate:"required,language"`
	Target string `mapstructure:"target" yaml:"target" validate:"required,language,nefield=Native"`
}

type PlaybackConfig struct {
	AutoTranslate bool `mapstructure:"auto_translate" yaml:"auto_translate"`
	// PauseDelay is the number of seconds after a segment ends before playback pauses.
	PauseDelay           float64       `mapstructure:"pause_delay" yaml:"pause_delay" validate:"gte=0,lte=10"`
	PollInterval         time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" validate:"gte=100ms,lte=300ms"`
	TriggerSlack         float64       `mapstructure:"trigger_slack" yaml:"trigger_slack" validate:"gt=0"`
	AutoPlayAfterCorrect bool          `mapstructure:"auto_play_after_correct" yaml:"auto_play_after_correct"`
	AutoAdvanceDelay     time.Duration `mapstructure:"auto_advance_delay" yaml:"auto_advance_delay" validate:"gte=0"`
}

type GradingConfig struct {
	UseGeminiValidation bool    `mapstructure:"use_gemini_validation" yaml:"use_gemini_validation"`
	AcceptThreshold     float64 `mapstructure:"accept_threshold" yaml:"accept_threshold" validate:"gt=0,lte=1"`
	CloseThreshold      float64 `mapstructure:"close_threshold" yaml:"close_threshold" validate:"gte=0,ltfield=AcceptThreshold"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key" validate:"omitempty,gemini_key"`
	Model  string `mapstructure:"model" yaml:"model" validate:"required"`
}

// OpenAIConfig points at an OpenAI compatible server. A local model server
// stands in for the on-device translator and writer.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
}

type BridgeConfig struct {
	ReadyTimeout   time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout" validate:"gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gt=0"`
}

type TranslatorConfig struct {
	ReadinessInterval time.Duration `mapstructure:"readiness_interval" yaml:"readiness_interval" validate:"gt=0"`
	ReadinessTimeout  time.Duration `mapstructure:"readiness_timeout" yaml:"readiness_timeout" validate:"gtfield=ReadinessInterval"`
}

type VocabularyConfig struct {
	Difficulty    string `mapstructure:"difficulty" yaml:"difficulty" validate:"oneof=beginner intermediate advanced"`
	MaxWords      int    `mapstructure:"max_words" yaml:"max_words" validate:"gt=0"`
	MinConfidence int    `mapstructure:"min_confidence" yaml:"min_confidence" validate:"gte=0,lte=100"`
}

type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// QuizFrequency is the reminder interval in minutes.
	QuizFrequency int `mapstructure:"quiz_frequency" yaml:"quiz_frequency" validate:"gte=1"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" validate:"oneof=sqlite3 mysql yaml"`
	Path   string `mapstructure:"path" yaml:"path" validate:"required_unless=Driver mysql"`
}

type DatabaseConfig struct {
	Host            string            `mapstructure:"host" yaml:"host"`
	Port            int               `mapstructure:"port" yaml:"port"`
	Database        string            `mapstructure:"database" yaml:"database"`
	Username        string            `mapstructure:"username" yaml:"username"`
	Password        string            `mapstructure:"password" yaml:"password"`
	TLS             bool              `mapstructure:"tls" yaml:"tls"`
	Params          map[string]string `mapstructure:"params" yaml:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
}

type StatisticsConfig struct {
	Path string `mapstructure:"path" yaml:"path" validate:"required"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port" yaml:"port" validate:"gt=0,lt=65536"`
	CORS CORSConfig `mapstructure:"cors" yaml:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// SecretStore looks up secrets that are neither in the config file nor in the environment.
type SecretStore interface {
	GeminiAPIKey() (string, error)
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	secrets    SecretStore
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/fluentai")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		secrets:    Keyring{},
	}, nil
}

// WithSecretStore replaces the OS keyring lookup.
func (loader *ConfigLoader) WithSecretStore(secrets SecretStore) *ConfigLoader {
	loader.secrets = secrets
	return loader
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("languages.native", "en")
	v.SetDefault("languages.target", "es")
	v.SetDefault("playback.auto_translate", true)
	v.SetDefault("playback.pause_delay", 1.0)
	v.SetDefault("playback.poll_interval", 300*time.Millisecond)
	v.SetDefault("playback.trigger_slack", 0.5)
	v.SetDefault("playback.auto_play_after_correct", true)
	v.SetDefault("playback.auto_advance_delay", 1500*time.Millisecond)
	v.SetDefault("grading.use_gemini_validation", true)
	v.SetDefault("grading.accept_threshold", 0.9)
	v.SetDefault("grading.close_threshold", 0.6)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("openai.model", "llama3.2")
	v.SetDefault("openai.base_url", "http://localhost:11434/v1")
	v.SetDefault("bridge.ready_timeout", 5*time.Second)
	v.SetDefault("bridge.request_timeout", 30*time.Second)
	v.SetDefault("translator.readiness_interval", time.Second)
	v.SetDefault("translator.readiness_timeout", time.Minute)
	v.SetDefault("vocabulary.difficulty", "intermediate")
	v.SetDefault("vocabulary.max_words", 30)
	v.SetDefault("vocabulary.min_confidence", 70)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.quiz_frequency", 30)
	v.SetDefault("storage.driver", "sqlite3")
	v.SetDefault("storage.path", "fluentai.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "fluentai")
	v.SetDefault("database.username", "user")
	v.SetDefault("statistics.path", "stats.yml")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"chrome-extension://*", "http://localhost:3000"})

	// Secrets come from the environment when they are not in the config file
	if err := v.BindEnv("gemini.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.base_url", "OPENAI_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_BASE_URL environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if cfg.Gemini.APIKey == "" && loader.secrets != nil {
		key, err := loader.secrets.GeminiAPIKey()
		switch {
		case errors.Is(err, ErrSecretNotFound):
		case err != nil:
			slog.Default().Debug("failed to read the Gemini API key from the keyring", "error", err)
		default:
			cfg.Gemini.APIKey = key
		}
	}

	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("validator.Struct() > %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
