// Package config loads and validates the service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

// LLM providers
const (
	LLMGemini = "gemini"
	LLMOpenAI = "openai"
)

// VoiceConfig holds the hosted voice-agent credentials.
type VoiceConfig struct {
	BaseURL     string
	Token       string
	WorkflowID  string // used when generating a new interview
	AssistantID string // used when conducting an interview
}

// App is the full service configuration.
type App struct {
	Environment string
	Port        int

	StoreBackend  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	LLMProvider  string
	GeminiAPIKey string
	OpenAIAPIKey string

	Voice VoiceConfig

	AllowedOrigins []string
}

// Load reads the configuration from environment variables and validates it.
func Load() (*App, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore reads the configuration but only validates the storage settings.
// Offline commands use it so they run without model or voice credentials.
func LoadStore() (*App, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*App, error) {
	port, err := envInt("PORT", 8080)
	if err != nil {
		return nil, err
	}

	cfg := &App{
		Environment:   envString("APP_ENV", EnvDevelopment),
		Port:          port,
		StoreBackend:  strings.ToLower(envString("STORE_BACKEND", StorePostgres)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: envString("MONGO_DATABASE", "interview_coach"),
		RedisURL:      os.Getenv("REDIS_URL"),
		LLMProvider:   strings.ToLower(envString("LLM_PROVIDER", LLMGemini)),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		Voice: VoiceConfig{
			BaseURL:     envString("VOICE_BASE_URL", "https://api.vapi.ai"),
			Token:       os.Getenv("VOICE_API_TOKEN"),
			WorkflowID:  os.Getenv("VOICE_WORKFLOW_ID"),
			AssistantID: os.Getenv("VOICE_ASSISTANT_ID"),
		},
		AllowedOrigins: splitList(envString("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	return cfg, nil
}

// Validate checks that required settings for the selected backends are present.
func (c *App) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: invalid port %d", c.Port)
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}

	switch c.LLMProvider {
	case LLMGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("config error: GEMINI_API_KEY is required")
		}
	case LLMOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("config error: OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("config error: unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.Voice.Token == "" {
		return fmt.Errorf("config error: VOICE_API_TOKEN is required")
	}
	if c.Voice.WorkflowID == "" && c.Voice.AssistantID == "" {
		return fmt.Errorf("config error: VOICE_WORKFLOW_ID or VOICE_ASSISTANT_ID is required")
	}

	return nil
}

// ValidateStore checks the settings of the selected storage backend.
func (c *App) ValidateStore() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: DATABASE_URL is required for the postgres store")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config error: MONGO_URI is required for the mongo store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config error: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *App) IsProduction() bool {
	return c.Environment == EnvProduction
}

// LLMAPIKey returns the API key for the configured provider.
func (c *App) LLMAPIKey() string {
	if c.LLMProvider == LLMOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// envString gets an environment variable as a string with a default value.
func envString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// envInt gets an environment variable as an integer with a default value.
// Unlike the rate limiter helpers, malformed values are an error here.
func envInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

// EnvBool gets an environment variable as a boolean with a default value.
func EnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// EnvIntOr gets an environment variable as an integer, falling back to the default when unset or malformed.
func EnvIntOr(key string, defaultValue int) int {
	n, err := envInt(key, defaultValue)
	if err != nil {
		return defaultValue
	}
	return n
}

// EnvDuration gets an environment variable as a duration with a default value.
func EnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// EnvList gets a comma-separated environment variable as a list.
func EnvList(key string) []string {
	return splitList(os.Getenv(key))
}

func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
