package ai

import (
	"encoding/json"
	"strings"

	"github.com/benvon/postcraft/internal/apperr"
)

// DecodeJSONObject decodes the substring of raw between the first '{' and the last '}'.
// Models often wrap JSON in prose or code fences; anything outside the braces is ignored.
func DecodeJSONObject(raw string, v interface{}) error {
	return decodeDelimited(raw, "{", "}", "object", v)
}

// DecodeJSONArray decodes the substring of raw between the first '[' and the last ']'
func DecodeJSONArray(raw string, v interface{}) error {
	return decodeDelimited(raw, "[", "]", "array", v)
}

func decodeDelimited(raw, open, close, kind string, v interface{}) error {
	start := strings.Index(raw, open)
	end := strings.LastIndex(raw, close)
	if start == -1 || end == -1 || end < start {
		return apperr.Parse("model response did not contain a JSON "+kind, nil)
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return apperr.Parse("model response contained malformed JSON "+kind, err)
	}
	return nil
}
