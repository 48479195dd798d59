// Package parse extracts structured values from model replies. Language
// models frequently emit almost-JSON (single quotes, trailing commas, code
// fences); parsing goes through jsonrepair before giving up.
package parse

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Object parses a model reply into a generic JSON object. Invalid JSON is
// repaired and retried once.
func Object(content string) (map[string]any, error) {
	trimmed := stripFences(content)

	var object map[string]any
	if err := json.Unmarshal([]byte(trimmed), &object); err == nil {
		return object, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(trimmed)
	if repairErr != nil {
		return nil, fmt.Errorf("reply is not JSON and could not be repaired: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &object); err != nil {
		return nil, fmt.Errorf("repaired reply is still not a JSON object: %w", err)
	}
	return object, nil
}

// Field parses a model reply as JSON and returns the named field rendered
// as text. Missing fields are an error; nested values render as compact JSON.
func Field(content, field string) (string, error) {
	object, err := Object(content)
	if err != nil {
		return "", err
	}

	value, ok := object[field]
	if !ok {
		return "", fmt.Errorf("reply has no field %q", field)
	}

	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// stripFences removes a surrounding markdown code fence, a common wrapper
// around model JSON output.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
