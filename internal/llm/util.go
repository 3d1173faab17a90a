// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock isolates the JSON payload in a model reply. LLMs often
// wrap JSON in ```json ... ``` blocks or surround it with conversational
// preamble and trailing chatter even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		// Handle generic ``` ... ``` blocks
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			// If first line looks like a language identifier (no spaces, short), skip it
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Drop any prose before or after the first balanced JSON value.
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	rest := text[start:]
	var extracted string
	if rest[0] == '{' {
		extracted = extractJSONObject(rest)
	} else {
		extracted = extractJSONArray(rest)
	}
	if extracted != "" {
		return extracted
	}
	return text
}

// extractJSONObject returns the balanced JSON object at the start of
// text, or "" if text does not begin with one.
func extractJSONObject(text string) string {
	return extractBalanced(text, '{', '}')
}

// extractJSONArray returns the balanced JSON array at the start of
// text, or "" if text does not begin with one.
func extractJSONArray(text string) string {
	return extractBalanced(text, '[', ']')
}

func extractBalanced(text string, open, close byte) string {
	if len(text) == 0 || text[0] != open {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// string contents never affect nesting
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[:i+1]
			}
		}
	}
	return ""
}
