package parse

import "strings"

// Template generation response markers.
const (
	markerTemplate  = "TEMPLATE:"
	markerWildcards = "NEW_WILDCARDS:"
)

// ParseTemplateSections splits a template-generation response into the
// template body and the list of new wildcard names the model invented.
// Markers are matched case-insensitively. A response without a TEMPLATE:
// marker is treated entirely as the template body; a missing or literal
// "none" wildcard section yields an empty list.
func ParseTemplateSections(text string) (template string, newWildcards []string) {
	markers := findMarkers(text, markerTemplate, markerWildcards)

	template = strings.TrimSpace(text)
	var wildcardSection string
	seenTemplate := false
	for i, m := range markers {
		section := sectionAfter(text, markers, i)
		switch m.name {
		case markerTemplate:
			template = section
			seenTemplate = true
		case markerWildcards:
			wildcardSection = section
		}
	}
	// No TEMPLATE: marker but a wildcard section: keep only the part
	// before the wildcard marker as the body.
	if !seenTemplate && len(markers) > 0 {
		template = strings.TrimSpace(text[:markers[0].start])
	}

	return template, splitWildcardNames(wildcardSection)
}

// splitWildcardNames parses the comma-separated wildcard name list.
func splitWildcardNames(section string) []string {
	if section == "" || strings.EqualFold(strings.TrimSpace(section), "none") {
		return nil
	}
	var names []string
	for _, name := range strings.Split(section, ",") {
		name = strings.Trim(strings.TrimSpace(name), "_`.")
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
