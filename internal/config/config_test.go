package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/llm"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/sdr_coach_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("STORAGE_BUCKET", "resumes")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, llm.ProviderChat, cfg.LLM.Provider)
	assert.Equal(t, "deepseek-chat", cfg.LLM.Model)
	assert.Equal(t, "resumes", cfg.Storage.Bucket)
	assert.Zero(t, cfg.ContentCeiling)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("LLM_MODEL", "gemini-2.5-flash")
	t.Setenv("LLM_TIMEOUT", "90s")
	t.Setenv("CONTENT_CEILING", "4000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 4000, cfg.ContentCeiling)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		setting string
	}{
		{"missing database url", "DATABASE_URL", "DATABASE_URL"},
		{"missing jwt secret", "JWT_SECRET", "JWT_SECRET"},
		{"missing llm key", "LLM_API_KEY", "LLM_API_KEY"},
		{"missing bucket", "STORAGE_BUCKET", "STORAGE_BUCKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)

			var cfgErr *coach.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.setting, cfgErr.Setting)
		})
	}
}

func TestLoad_InvalidProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_PROVIDER", "claude")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}
