package parse

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// ParseJSONObject extracts a JSON object from a model response and returns
// it re-serialized. A decoded object carrying a "choices" list has that
// list sanitized before re-serialization; any other valid object is
// returned as extracted, shape validation being the caller's concern. When
// no object can be decoded at all, the response is parsed as an array
// (with all of ParseJSONArray's fallbacks) and wrapped in a synthetic
// wildcard object built around fallbackTopic.
func ParseJSONObject(text, fallbackTopic string) string {
	if raw, ok := extractObject(text); ok {
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			if choices, ok := obj["choices"].([]any); ok {
				obj["choices"] = SanitizeChoices(choices)
				out, err := json.Marshal(obj)
				if err == nil {
					return string(out)
				}
				log.Warn().Err(err).Msg("Could not re-serialize sanitized wildcard object")
			}
			return raw
		}
		log.Warn().Str("preview", truncate(raw, 120)).
			Msg("Response looked like a JSON object but did not decode, building fallback object")
	}
	return fallbackObject(text, fallbackTopic)
}

// extractObject finds the most plausible JSON object substring in text.
func extractObject(text string) (string, bool) {
	stripped := stripFences(text)
	if raw, ok := extractDelimited(stripped, '{', '}'); ok {
		return raw, true
	}
	return extractDelimited(text, '{', '}')
}

// fallbackObject builds a minimal valid wildcard object from whatever list
// content can be scraped out of the response.
func fallbackObject(text, topic string) string {
	obj := map[string]any{
		"description": "AI-generated content for " + topic + " (fallback mode)",
		"choices":     ParseJSONArray(text),
	}
	out, err := json.Marshal(obj)
	if err != nil {
		// Only reachable if a choice survived sanitization with an
		// unmarshalable type, which SanitizeChoices does not produce.
		return `{"description":"` + topic + `","choices":[]}`
	}
	return string(out)
}
