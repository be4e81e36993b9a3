// Package extract pulls a JSON object out of free-text model output.
// Models are instructed to return bare JSON but routinely wrap it in
// markdown fences or surrounding prose anyway.
package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	fencedJSON    = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	fencedGeneric = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// ErrNoJSON is returned when no strategy yields a valid JSON object
var ErrNoJSON = errors.New("no valid JSON object found in model output")

// JSON extracts the first syntactically valid JSON object from raw.
// Strategies are tried in order: a ```json fence, a generic ``` fence,
// the outermost {...} span, then the raw string itself. The first
// candidate that parses wins; an invalid candidate never short-circuits
// the remaining strategies.
func JSON(raw string) ([]byte, error) {
	for _, candidate := range candidates(raw) {
		if candidate == "" {
			continue
		}
		if strings.HasPrefix(candidate, "{") && json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}
	return nil, ErrNoJSON
}

func candidates(raw string) []string {
	var out []string

	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	if m := fencedGeneric.FindStringSubmatch(raw); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	out = append(out, braceSpan(raw))
	out = append(out, strings.TrimSpace(raw))

	return out
}

// braceSpan returns the span from the first '{' to the last '}', or ""
// when no such span exists
func braceSpan(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return strings.TrimSpace(raw[start : end+1])
}
