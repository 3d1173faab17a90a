// Package config loads service configuration from environment
// variables. Nothing outside this package reads the environment; every
// component takes its settings as explicit values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jonathan/sdr-coach/internal/blob"
	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/llm"
)

// Config is the full service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// DatabaseURL is the PostgreSQL connection string for the insight
	// store.
	DatabaseURL string

	// JWTSecret verifies tokens issued by the auth provider.
	JWTSecret string

	// LLM configures the completion provider.
	LLM llm.Config

	// Storage configures the object store holding uploaded resumes.
	Storage blob.Config

	// ContentCeiling caps normalized resume text passed to the model,
	// in characters. Zero means the built-in default.
	ContentCeiling int
}

// Load reads configuration from the environment. Required settings
// missing here fail fast with a ConfigurationError before any network
// or database work happens.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LLM: llm.Config{
			Provider:       llm.Provider(getEnvString("LLM_PROVIDER", string(llm.ProviderChat))),
			BaseURL:        getEnvString("LLM_BASE_URL", "https://api.deepseek.com"),
			APIKey:         os.Getenv("LLM_API_KEY"),
			Model:          getEnvString("LLM_MODEL", "deepseek-chat"),
			Timeout:        getEnvDuration("LLM_TIMEOUT", 0),
			MaxAttempts:    getEnvInt("LLM_MAX_ATTEMPTS", 0),
			RetryBaseDelay: getEnvDuration("LLM_RETRY_BASE_DELAY", 0),
		},
		Storage: blob.Config{
			Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
			Region:    os.Getenv("STORAGE_REGION"),
			Bucket:    os.Getenv("STORAGE_BUCKET"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		},
		ContentCeiling: getEnvInt("CONTENT_CEILING", 0),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return &coach.ConfigurationError{Setting: "DATABASE_URL", Hint: "set the PostgreSQL connection string"}
	}
	if c.JWTSecret == "" {
		return &coach.ConfigurationError{Setting: "JWT_SECRET", Hint: "set the auth provider's token signing secret"}
	}
	if c.LLM.APIKey == "" {
		return &coach.ConfigurationError{Setting: "LLM_API_KEY", Hint: "set the completion provider API key"}
	}
	if c.Storage.Bucket == "" {
		return &coach.ConfigurationError{Setting: "STORAGE_BUCKET", Hint: "set the resume storage bucket name"}
	}
	if c.LLM.Provider != llm.ProviderChat && c.LLM.Provider != llm.ProviderGemini {
		return fmt.Errorf("invalid LLM_PROVIDER %q: must be %q or %q", c.LLM.Provider, llm.ProviderChat, llm.ProviderGemini)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be 1-65535", c.Port)
	}
	return nil
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
