// Package structure coerces free-form LLM replies into the structured
// analysis schema. The strict path parses and validates JSON; the
// fallback path reconstructs what it can with label-proximity regexes
// and fills the rest with explicit placeholder data so the rendering
// layer always has content.
package structure

import (
	_ "embed"
	"encoding/json"
	"log"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/sdr-coach/internal/llm"
)

//go:embed schema.json
var schemaJSON []byte

// Structure attempts a strict parse of rawText and falls back to
// heuristic reconstruction. It never fails.
func Structure(rawText string) Result {
	if schema, ok := parseStrict(rawText); ok {
		return Result{Schema: schema, Source: SourceStrict}
	}

	schema, placeholders := Reconstruct(rawText)
	if len(placeholders) > 0 {
		log.Printf("structure: reconstructed analysis used placeholder fields: %v", placeholders)
	}
	return Result{Schema: schema, Source: SourceReconstructed, Placeholders: placeholders}
}

// parseStrict parses rawText as the schema and validates it against the
// embedded JSON Schema. The parse is lossless for well-formed input.
func parseStrict(rawText string) (Schema, bool) {
	cleaned := llm.CleanJSONBlock(rawText)

	var schema Schema
	if err := json.Unmarshal([]byte(cleaned), &schema); err != nil {
		return Schema{}, false
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil || !result.Valid() {
		return Schema{}, false
	}
	return schema, true
}
