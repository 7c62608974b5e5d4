package llm

import (
	"encoding/json"
	"strings"

	"github.com/kestrelhq/ddrgen/types"
)

// extractJSON pulls a JSON document out of a model response that may wrap it
// in markdown code blocks or surrounding prose.
func extractJSON(response string) string {
	// Fenced ```json block first.
	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}

	// Generic fenced block, skipping a language identifier line if present.
	if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if newline := strings.Index(response[start:], "\n"); newline != -1 {
			start += newline + 1
		}
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}

	// Raw JSON object: first brace to its matching close.
	if idx := strings.Index(response, "{"); idx != -1 {
		depth := 0
		for i := idx; i < len(response); i++ {
			switch response[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return response[idx : i+1]
				}
			}
		}
	}

	return response
}

// unmarshalResponse extracts the JSON payload from a model response and
// decodes it into out. Decode failures are schema violations: the response
// did not conform to the requested structure, which the retry wrapper treats
// as retryable.
func unmarshalResponse(response string, out any) error {
	payload := extractJSON(response)
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return types.NewSchemaValidationError("response is not valid JSON for the requested structure", err)
	}
	return nil
}
