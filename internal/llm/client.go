// Package llm provides the completion client abstraction over LLM
// providers. The credential is held server-side and injected at
// construction; client code never reads ambient environment state.
package llm

import (
	"context"
	"time"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/prompt"
)

// Client is an abstraction over LLM providers.
type Client interface {
	// Complete issues one completion call and returns the raw text reply.
	Complete(ctx context.Context, req prompt.Request) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// Provider identifies an LLM provider.
type Provider string

// Supported providers.
const (
	// ProviderChat is any endpoint speaking the standard chat-completion
	// wire shape (OpenAI-compatible). This is the default.
	ProviderChat Provider = "chat"
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini Provider = "gemini"
)

// Config holds provider selection and connection settings for the
// completion client.
type Config struct {
	Provider Provider
	// BaseURL overrides the chat endpoint base (e.g. a proxy). Ignored
	// by the Gemini provider.
	BaseURL string
	APIKey  string
	Model   string
	// Timeout bounds a single completion attempt.
	Timeout time.Duration
	// MaxAttempts bounds retries on 429/5xx and transport errors.
	MaxAttempts int
	// RetryBaseDelay is the first backoff delay; it doubles per attempt.
	RetryBaseDelay time.Duration
}

// Defaults for optional config fields.
const (
	DefaultTimeout        = 60 * time.Second
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
)

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
}

// NewClient creates an LLM client for the configured provider. It fails
// with a ConfigurationError before any network call when the credential
// is missing.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, &coach.ConfigurationError{
			Setting: "LLM_API_KEY",
			Hint:    "set the completion endpoint credential before starting",
		}
	}
	cfg.applyDefaults()

	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return NewChatClient(cfg), nil
	}
}
