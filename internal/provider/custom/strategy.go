package custom

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Strategy pulls answer text out of a response body.
type Strategy struct {
	Name    string
	Extract func(body gjson.Result) (string, bool)
}

// Strategies are tried in order; the first one that yields text wins.
var Strategies = []Strategy{
	{Name: "candidates", Extract: stringAt("candidates.0.content.parts.0.text")},
	{Name: "choices", Extract: stringAt("choices.0.message.content")},
	{Name: "content", Extract: stringAt("content")},
	{Name: "text", Extract: stringAt("text")},
	{Name: "message", Extract: stringAt("message")},
	{Name: "response", Extract: stringAt("response")},
}

// stringAt returns a strategy that reads a non-empty string at a gjson path.
func stringAt(p string) func(gjson.Result) (string, bool) {
	return func(body gjson.Result) (string, bool) {
		v := body.Get(p)
		if v.Type != gjson.String || strings.TrimSpace(v.Str) == "" {
			return "", false
		}
		return v.Str, true
	}
}

// Extract runs Strategies over raw and returns the first match along with
// the name of the strategy that produced it.
func Extract(raw []byte) (text, strategy string, ok bool) {
	if !gjson.ValidBytes(raw) {
		return "", "", false
	}
	body := gjson.ParseBytes(raw)
	for _, s := range Strategies {
		if text, ok := s.Extract(body); ok {
			return text, s.Name, true
		}
	}
	return "", "", false
}
