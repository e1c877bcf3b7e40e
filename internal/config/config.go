package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/satriahrh/sikap/adapters/emotion"
	"github.com/satriahrh/sikap/adapters/llm"
	"github.com/satriahrh/sikap/adapters/tts"
)

// EnvPrefix prefixes every environment override, e.g. SIKAP_SERVER_PORT
const EnvPrefix = "SIKAP"

// Provider names
const (
	ProviderMock       = "mock"
	ProviderHume       = "hume"
	ProviderGoogle     = "google"
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderNone       = "none"
)

// Config is the full service configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Emotion   EmotionConfig   `mapstructure:"emotion"`
	STT       STTConfig       `mapstructure:"stt"`
	LLM       LLMConfig       `mapstructure:"llm"`
	TTS       TTSConfig       `mapstructure:"tts"`
	Auth      AuthConfig      `mapstructure:"auth"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Interview InterviewConfig `mapstructure:"interview"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AnalysisConfig struct {
	Segments    int    `mapstructure:"segments"`
	MaxSegments int    `mapstructure:"max_segments"`
	Language    string `mapstructure:"language"`
	TopN        int    `mapstructure:"top_n"`
}

type EmotionConfig struct {
	Provider string             `mapstructure:"provider"`
	Hume     emotion.HumeConfig `mapstructure:"hume"`
}

type STTConfig struct {
	Provider string `mapstructure:"provider"`
}

type LLMConfig struct {
	Provider string           `mapstructure:"provider"`
	Gemini   llm.GeminiConfig `mapstructure:"gemini"`
}

type TTSConfig struct {
	Provider   string               `mapstructure:"provider"`
	ElevenLabs tts.ElevenLabsConfig `mapstructure:"elevenlabs"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// InterviewConfig controls expiry of in-memory interview sessions
type InterviewConfig struct {
	MaxIdle         time.Duration `mapstructure:"max_idle"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type HTTPConfig struct {
	// Timeout bounds one request, including a full answer analysis
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxUploadSize int64         `mapstructure:"max_upload_size"`
}

// Load reads .env, an optional YAML file and SIKAP_* environment overrides.
// An empty path searches ./configs and . for config.yaml.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("analysis.segments", 6)
	v.SetDefault("analysis.max_segments", 64)
	v.SetDefault("analysis.language", "en-US")
	v.SetDefault("analysis.top_n", 5)

	v.SetDefault("emotion.provider", ProviderMock)
	v.SetDefault("emotion.hume.url", "wss://api.hume.ai/v0/stream/models")
	v.SetDefault("emotion.hume.api_key", "")
	v.SetDefault("emotion.hume.max_attempts", 3)
	v.SetDefault("emotion.hume.timeout", "30s")

	v.SetDefault("stt.provider", ProviderMock)

	v.SetDefault("llm.provider", ProviderMock)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", "gemini-2.0-flash")
	v.SetDefault("llm.gemini.temperature", 0.7)
	v.SetDefault("llm.gemini.top_p", 0.95)
	v.SetDefault("llm.gemini.top_k", 40)
	v.SetDefault("llm.gemini.max_output_tokens", 2048)
	v.SetDefault("llm.gemini.timeout_seconds", 60)
	v.SetDefault("llm.gemini.max_attempts", 3)

	v.SetDefault("tts.provider", ProviderNone)
	v.SetDefault("tts.elevenlabs.api_key", "")
	v.SetDefault("tts.elevenlabs.base_url", "https://api.elevenlabs.io/v1")
	v.SetDefault("tts.elevenlabs.voice_id", "")
	v.SetDefault("tts.elevenlabs.model_id", "")
	v.SetDefault("tts.elevenlabs.output_format", "")
	v.SetDefault("tts.elevenlabs.chunk_size", 4096)
	v.SetDefault("tts.elevenlabs.stability", 0.5)
	v.SetDefault("tts.elevenlabs.clarity", 0.75)
	v.SetDefault("tts.elevenlabs.max_attempts", 3)
	v.SetDefault("tts.elevenlabs.timeout", "60s")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "2h")

	v.SetDefault("http.timeout", "120s")
	v.SetDefault("http.max_upload_size", 32<<20)

	v.SetDefault("interview.max_idle", "2h")
	v.SetDefault("interview.cleanup_interval", "10m")
}

// bindLegacyEnv accepts the provider env names used outside this service
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"llm.gemini.api_key":     "GEMINI_API_KEY",
		"tts.elevenlabs.api_key": "ELEVEN_LABS_API_KEY",
		"emotion.hume.api_key":   "HUME_API_KEY",
		"auth.jwt_secret":        "JWT_SECRET",
		"server.port":            "PORT",
	}
	for key, env := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate checks value ranges and that every selected provider has its credentials
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Analysis.Segments < 1 {
		return fmt.Errorf("analysis.segments must be at least 1, got %d", c.Analysis.Segments)
	}
	if c.Analysis.MaxSegments < c.Analysis.Segments {
		return fmt.Errorf("analysis.max_segments must be at least analysis.segments, got %d", c.Analysis.MaxSegments)
	}
	if c.Analysis.TopN < 1 {
		return fmt.Errorf("analysis.top_n must be at least 1, got %d", c.Analysis.TopN)
	}

	switch c.Emotion.Provider {
	case ProviderMock:
	case ProviderHume:
		if c.Emotion.Hume.APIKey == "" {
			return errors.New("emotion.hume.api_key is required for the hume provider")
		}
	default:
		return fmt.Errorf("unknown emotion.provider %q", c.Emotion.Provider)
	}

	switch c.STT.Provider {
	case ProviderMock, ProviderGoogle:
	default:
		return fmt.Errorf("unknown stt.provider %q", c.STT.Provider)
	}

	switch c.LLM.Provider {
	case ProviderMock:
	case ProviderGemini:
		if err := llm.ValidateGeminiConfig(c.LLM.Gemini); err != nil {
			return fmt.Errorf("llm.gemini: %w", err)
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}

	switch c.TTS.Provider {
	case ProviderNone:
	case ProviderElevenLabs:
		if err := tts.ValidateElevenLabsConfig(c.TTS.ElevenLabs); err != nil {
			return fmt.Errorf("tts.elevenlabs: %w", err)
		}
	default:
		return fmt.Errorf("unknown tts.provider %q", c.TTS.Provider)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout)
	}
	if c.Interview.MaxIdle <= 0 || c.Interview.CleanupInterval <= 0 {
		return errors.New("interview.max_idle and interview.cleanup_interval must be positive")
	}
	return nil
}
