package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

// ExtractJSON pulls a JSON object of type T out of raw model text. Code
// fences and chatter around the object are ignored; if the object itself is
// malformed (trailing commas, comments, single quotes) it is repaired once
// before giving up.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	if strings.TrimSpace(raw) == "" {
		return zero, ErrEmptyOutput
	}

	block := extractJSONBlock(stripCodeFences(raw))
	if block == "" {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}

	var result T
	if err := json.Unmarshal([]byte(block), &result); err != nil {
		repaired, rerr := jsonrepair.JSONRepair(block)
		if rerr != nil {
			return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
		result = zero
		if err := json.Unmarshal([]byte(repaired), &result); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
		}
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}
	return result, nil
}

// LooksLikeJSONObject reports whether text is (after trimming) a JSON
// object rather than prose.
func LooksLikeJSONObject(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(stripCodeFences(text)), "{")
}

// stripCodeFences drops markdown fence lines (```json and ```), keeping
// whatever they enclose.
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractJSONBlock returns the first balanced {...} span, honouring string
// literals. An unterminated object is returned as-is from its opening brace
// so the repair step can try to close it.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return strings.TrimSpace(s[start:])
}
