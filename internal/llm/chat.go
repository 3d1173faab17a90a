package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/prompt"
)

// DefaultChatBase is the default chat-completions endpoint base.
const DefaultChatBase = "https://api.openai.com/v1"

// ChatClient implements Client against any endpoint speaking the
// standard chat-completion wire shape.
type ChatClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewChatClient creates a chat-completions client. Use NewClient for
// credential validation; this constructor assumes cfg is complete.
func NewChatClient(cfg Config) *ChatClient {
	cfg.applyDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultChatBase
	}
	return &ChatClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	MaxTokens        int           `json:"max_tokens"`
	Temperature      float64       `json:"temperature"`
	PresencePenalty  float64       `json:"presence_penalty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	Stream           bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete issues the completion call with a per-attempt timeout and
// bounded exponential backoff on 429, 5xx, and transport errors.
func (c *ChatClient) Complete(ctx context.Context, req prompt.Request) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &coach.ConfigurationError{
			Setting: "LLM_API_KEY",
			Hint:    "set the completion endpoint credential before starting",
		}
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserTurn()},
		},
		MaxTokens:        req.Params.MaxTokens,
		Temperature:      req.Params.Temperature,
		PresencePenalty:  req.Params.PresencePenalty,
		FrequencyPenalty: req.Params.FrequencyPenalty,
		Stream:           false,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	var lastErr error
	delay := c.cfg.RetryBaseDelay
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		text, retryable, err := c.attempt(ctx, data)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}
	return "", lastErr
}

// attempt performs a single HTTP round trip. The second return value
// reports whether the failure is worth retrying.
func (c *ChatClient) attempt(ctx context.Context, body []byte) (string, bool, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, &coach.UpstreamError{Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, &coach.UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, &coach.UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(respBody, resp.StatusCode),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, &coach.UpstreamError{StatusCode: resp.StatusCode, Message: "failed to decode response", Cause: err}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", false, &coach.UpstreamError{StatusCode: resp.StatusCode, Message: "empty completion"}
	}
	return parsed.Choices[0].Message.Content, false, nil
}

// providerMessage extracts the provider's error message from an error
// body, falling back to the HTTP status text.
func providerMessage(body []byte, statusCode int) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return http.StatusText(statusCode)
}

// Close releases resources held by the client.
func (c *ChatClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
