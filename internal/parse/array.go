package parse

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
)

// fillerPrefixes mark lines of conversational padding that models emit
// around a list ("Here are 20 choices for you...").
var fillerPrefixes = []string{
	"here are",
	"here's",
	"here is",
	"sure,",
	"sure!",
	"of course",
	"certainly",
	"as requested",
	"i've generated",
	"i have generated",
	"these are",
	"below is",
	"below are",
}

// ParseJSONArray extracts a JSON array from a model response. It prefers a
// ```json fenced array, then the substring between the first '[' and last
// ']'. When JSON decoding fails entirely it falls back to treating the
// response as a plain text list, one entry per line. The returned entries
// are sanitized via SanitizeChoices; the result may be empty but is never
// accompanied by an error.
func ParseJSONArray(text string) []any {
	if raw, ok := extractArray(text); ok {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return SanitizeChoices(arr)
		} else {
			log.Warn().Err(err).Str("preview", truncate(raw, 120)).
				Msg("Response looked like a JSON array but did not decode, falling back to line parsing")
		}
	}
	return linesAsChoices(text)
}

// extractArray finds the most plausible JSON array substring in text.
func extractArray(text string) (string, bool) {
	stripped := stripFences(text)
	if raw, ok := extractDelimited(stripped, '[', ']'); ok {
		return raw, true
	}
	return extractDelimited(text, '[', ']')
}

// linesAsChoices is the last-resort parser: split into lines, discard
// filler and scaffolding, strip list markers, and sanitize what remains.
func linesAsChoices(text string) []any {
	var out []any
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isScaffolding(line) {
			continue
		}
		lower := strings.ToLower(line)
		if hasFillerPrefix(lower) {
			continue
		}
		line = stripListMarker(line)
		line = strings.Trim(line, " \t\"'`,.;:[](){}")
		if len(line) > 1 {
			out = append(out, line)
		}
	}
	return SanitizeChoices(out)
}

// isScaffolding reports whether a line is pure punctuation or markdown
// fencing rather than content.
func isScaffolding(line string) bool {
	switch strings.ToLower(line) {
	case "[", "]", "json", "```", "```json":
		return true
	}
	return strings.Trim(line, "-=*_~`[](){}.,:;|#> \t") == ""
}

func hasFillerPrefix(lower string) bool {
	for _, p := range fillerPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// stripListMarker removes a leading bullet ("- ", "* ", "• ") or number
// ("3. ", "12) ") from a line.
func stripListMarker(line string) string {
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(line[len(bullet):])
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
