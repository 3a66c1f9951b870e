// Package parse turns raw model output into structured fields.
//
// Local models rarely follow response-format instructions exactly, so every
// function here layers a structured strategy (named markers, fenced JSON)
// over a heuristic fallback. Parsing never fails: a function that cannot
// find its structure returns a best-effort result instead of an error.
package parse

import (
	"sort"
	"strings"
)

// DefaultSDModel is the model recommendation used when a response carries
// no SD_MODEL: marker.
const DefaultSDModel = "Stable Diffusion XL (SDXL) - general purpose"

// Response section markers. Matched case-insensitively, anywhere in the text.
const (
	markerEnhanced = "ENHANCED_PROMPT:"
	markerSDModel  = "SD_MODEL:"
)

// foundMarker is a marker located in a response, with the byte range of the
// marker text itself.
type foundMarker struct {
	name  string
	start int
	end   int
}

// findMarkers locates the given markers in text, case-insensitively, and
// returns them sorted by position.
func findMarkers(text string, names ...string) []foundMarker {
	lower := strings.ToLower(text)
	var found []foundMarker
	for _, name := range names {
		idx := strings.Index(lower, strings.ToLower(name))
		if idx < 0 {
			continue
		}
		found = append(found, foundMarker{name: name, start: idx, end: idx + len(name)})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].start < found[j].start })
	return found
}

// sectionAfter returns the text between marker i's end and the start of the
// next marker (or end of string), trimmed.
func sectionAfter(text string, markers []foundMarker, i int) string {
	end := len(text)
	if i+1 < len(markers) {
		end = markers[i+1].start
	}
	return strings.TrimSpace(text[markers[i].end:end])
}

// ParseEnhancedResponse extracts the enhanced prompt and the recommended SD
// model from a raw enhancement response. The markers may appear in any
// order; either may be missing. A response with no ENHANCED_PROMPT: marker
// is treated as being entirely the enhanced prompt, minus any SD_MODEL:
// section. The enhanced text is flattened to a single line.
func ParseEnhancedResponse(text string) (enhanced, sdModel string) {
	markers := findMarkers(text, markerEnhanced, markerSDModel)
	if len(markers) == 0 {
		return collapseSpaces(text), DefaultSDModel
	}

	enhanced = strings.TrimSpace(text[:markers[0].start])
	sdModel = DefaultSDModel
	for i, m := range markers {
		section := sectionAfter(text, markers, i)
		switch m.name {
		case markerEnhanced:
			enhanced = section
		case markerSDModel:
			if section != "" {
				sdModel = section
			}
		}
	}
	return collapseSpaces(enhanced), collapseSpaces(sdModel)
}

// collapseSpaces trims text and collapses internal whitespace runs,
// including newlines, into single spaces.
func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// stripFences removes a leading ```/```json fence line and its closing ```
// line, returning the content between them. Text without a leading fence is
// returned unchanged.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// extractDelimited returns the substring of text from the first occurrence
// of open to the last occurrence of close, inclusive. ok is false when the
// pair is missing or inverted.
func extractDelimited(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end < 0 || start >= end {
		return "", false
	}
	return text[start : end+1], true
}

// truncate returns the first n bytes of s, appending "..." if truncated.
// Used to keep raw model output out of full-length log lines.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
