// Package prompt assembles chat requests from persona templates and
// normalized resume content. Persona templates are stored as JSON and
// embedded at compile time.
package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jonathan/sdr-coach/internal/coach"
)

//go:embed personas.json
var personaFile []byte

var (
	personasOnce sync.Once
	personas     map[coach.Kind]string
	personasErr  error
)

// ModelParams holds the sampling parameters for one completion call.
type ModelParams struct {
	Temperature      float64
	MaxTokens        int
	PresencePenalty  float64
	FrequencyPenalty float64
}

// Parameter profiles per call family. Analysis calls run cooler with a
// tighter token cap; coaching-plan calls run warmer with a larger cap.
var (
	analysisParams = ModelParams{
		Temperature:      0.3,
		MaxTokens:        2000,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	}
	coachingParams = ModelParams{
		Temperature:      0.7,
		MaxTokens:        3000,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	}
)

// Request is a fully assembled chat request. It is immutable once built
// and maps one-to-one onto a single completion call.
type Request struct {
	Kind            coach.Kind
	SystemPrompt    string
	UserContent     string
	TaskInstruction string
	Params          ModelParams
}

// ParamsFor returns the model parameter profile for a kind.
func ParamsFor(kind coach.Kind) ModelParams {
	if kind.IsCoaching() {
		return coachingParams
	}
	return analysisParams
}

// Build assembles a request for a registry-backed analysis kind. The
// normalized resume content and any task-specific instruction become
// the user turn.
func Build(kind coach.Kind, content, extraInstruction string) (Request, error) {
	if kind == coach.KindCustom {
		return Request{}, fmt.Errorf("custom kind requires BuildCustom with an explicit system prompt")
	}

	system, err := persona(kind)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Kind:            kind,
		SystemPrompt:    system,
		UserContent:     content,
		TaskInstruction: extraInstruction,
		Params:          ParamsFor(kind),
	}, nil
}

// BuildCustom assembles a request with a caller-supplied system prompt,
// bypassing the persona registry.
func BuildCustom(systemPrompt, content, extraInstruction string) (Request, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return Request{}, fmt.Errorf("custom system prompt is empty")
	}
	return Request{
		Kind:            coach.KindCustom,
		SystemPrompt:    systemPrompt,
		UserContent:     content,
		TaskInstruction: extraInstruction,
		Params:          ParamsFor(coach.KindCustom),
	}, nil
}

// UserTurn renders the user-turn content: the resume content followed
// by the task instruction, if any.
func (r Request) UserTurn() string {
	if strings.TrimSpace(r.TaskInstruction) == "" {
		return r.UserContent
	}
	return r.UserContent + "\n\n" + r.TaskInstruction
}

// persona returns the system prompt template for a kind.
func persona(kind coach.Kind) (string, error) {
	personasOnce.Do(func() {
		var raw map[string]string
		if err := json.Unmarshal(personaFile, &raw); err != nil {
			personasErr = fmt.Errorf("failed to parse persona file: %w", err)
			return
		}
		personas = make(map[coach.Kind]string, len(raw))
		for k, v := range raw {
			personas[coach.Kind(k)] = v
		}
	})
	if personasErr != nil {
		return "", personasErr
	}

	template, ok := personas[kind]
	if !ok {
		return "", fmt.Errorf("no persona registered for analysis kind %q", kind)
	}
	return template, nil
}
