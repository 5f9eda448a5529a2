package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonPattern     = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
	trailingComma   = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey     = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
	codeFencePrefix = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*")
)

// ExtractJSON pulls the outermost JSON object or array out of a model
// response, repairing common formatting slips when the raw text is invalid.
func ExtractJSON(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(codeFencePrefix.ReplaceAllString(strings.TrimSpace(text), ""))
	text = strings.TrimSuffix(text, "```")

	match := jsonPattern.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}
	if json.Valid([]byte(match)) {
		return json.RawMessage(match), nil
	}

	cleaned := fixJSON(match)
	if !json.Valid([]byte(cleaned)) {
		return nil, fmt.Errorf("invalid JSON in response")
	}
	return json.RawMessage(cleaned), nil
}

// fixJSON attempts to fix common JSON formatting issues.
func fixJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	s = unquotedKey.ReplaceAllString(s, `$1"$2":`)
	// Single quotes last; this is lossy for apostrophes inside strings.
	s = strings.ReplaceAll(s, "'", "\"")
	return s
}
