package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/prompt"
)

func testConfig(baseURL string) Config {
	return Config{
		Provider:       ProviderChat,
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Model:          "test-model",
		Timeout:        5 * time.Second,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
	}
}

func testRequest() prompt.Request {
	return prompt.Request{
		SystemPrompt: "You are a coach.",
		UserContent:  "resume text",
		Params:       prompt.ModelParams{Temperature: 0.3, MaxTokens: 2000},
	}
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func TestNewClient_MissingKeyFailsWithoutNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = ""

	_, err := NewClient(context.Background(), cfg)
	require.Error(t, err)

	var cfgErr *coach.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "LLM_API_KEY", cfgErr.Setting)
	assert.Zero(t, atomic.LoadInt32(&calls), "missing credential must fail before any network call")
}

func TestChatClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var payload chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "test-model", payload.Model)
		assert.False(t, payload.Stream)
		require.Len(t, payload.Messages, 2)
		assert.Equal(t, "system", payload.Messages[0].Role)
		assert.Equal(t, "user", payload.Messages[1].Role)
		assert.Equal(t, "resume text", payload.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("the analysis")))
	}))
	defer server.Close()

	client := NewChatClient(testConfig(server.URL))
	defer func() { _ = client.Close() }()

	text, err := client.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "the analysis", text)
}

func TestChatClient_ProviderMessagePassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer server.Close()

	client := NewChatClient(testConfig(server.URL))
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)

	var upErr *coach.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
	assert.Equal(t, "Incorrect API key provided", upErr.Message, "provider message must pass through untouched")
}

func TestChatClient_NoRetryOnClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
	}))
	defer server.Close()

	client := NewChatClient(testConfig(server.URL))
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx other than 429 must not retry")
}

func TestChatClient_RetriesOnRateLimitThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody("eventual answer")))
	}))
	defer server.Close()

	client := NewChatClient(testConfig(server.URL))
	defer func() { _ = client.Close() }()

	text, err := client.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "eventual answer", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestChatClient_ExhaustsAttemptsOnServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewChatClient(testConfig(server.URL))
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "should use every configured attempt")

	var upErr *coach.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.StatusCode)
}

func TestChatClient_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewChatClient(testConfig(server.URL))
	defer func() { _ = client.Close() }()

	_, err := client.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}

func TestChatClient_ContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryBaseDelay = 10 * time.Second
	client := NewChatClient(cfg)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProviderMessage_FallsBackToStatusText(t *testing.T) {
	assert.Equal(t, "Service Unavailable", providerMessage([]byte("not json"), http.StatusServiceUnavailable))
	assert.Equal(t, "Bad Gateway", providerMessage([]byte(`{}`), http.StatusBadGateway))
}
