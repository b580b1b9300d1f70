package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var codeFenceRegex = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*\n?(.*?)\\s*```$")

// stripCodeFence removes a Markdown code fence wrapped around a JSON payload.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeFenceRegex.FindStringSubmatch(s); len(matches) == 2 {
		return strings.TrimSpace(matches[1])
	}
	return s
}

// extractObject trims any prose before the first '{' and after the last '}'.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// decode parses raw model output into target and validates it.
func decode(raw string, target Schema) error {
	payload := extractObject(stripCodeFence(raw))
	if payload == "" {
		return &ParseError{Raw: raw, Err: errors.New("empty response")}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	if err := dec.Decode(target); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}

	return target.Validate()
}
