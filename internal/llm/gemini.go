package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/prompt"
)

// defaultGeminiModel is used when no model is configured.
const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements Client for Google Gemini.
type GeminiClient struct {
	client *genai.Client
	cfg    Config
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, &coach.ConfigurationError{Setting: "LLM_API_KEY"}
	}
	cfg.applyDefaults()
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, cfg: cfg}, nil
}

// Complete issues one generation call with the request's sampling
// parameters mapped onto the Gemini API.
func (c *GeminiClient) Complete(ctx context.Context, req prompt.Request) (string, error) {
	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(float32(req.Params.Temperature))
	model.SetMaxOutputTokens(int32(req.Params.MaxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.SystemPrompt)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserTurn()))
	if err != nil {
		return "", &coach.UpstreamError{Message: "gemini generation failed", Cause: err}
	}

	return extractTextFromResponse(resp)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &coach.UpstreamError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &coach.UpstreamError{Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", &coach.UpstreamError{Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
