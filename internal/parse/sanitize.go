package parse

import (
	"encoding/json"
	"strings"
)

// SanitizeChoices cleans a decoded wildcard choice list from a model
// response. Nested lists are flattened, nulls dropped, string entries that
// look like serialized JSON objects are promoted to objects, and all string
// content is trimmed with underscores replaced by spaces. Choice objects
// must carry a non-empty "value" or they are dropped. Scalars that are
// neither strings, objects, nor lists pass through unchanged.
func SanitizeChoices(choices []any) []any {
	cleaned := make([]any, 0, len(choices))
	for _, choice := range choices {
		if choice == nil {
			continue
		}
		if s, ok := choice.(string); ok {
			if obj := objectFromString(s); obj != nil {
				choice = obj
			}
		}
		switch v := choice.(type) {
		case string:
			if c := cleanString(v, true); c != "" {
				cleaned = append(cleaned, c)
			}
		case map[string]any:
			if obj := sanitizeChoiceObject(v); obj != nil {
				cleaned = append(cleaned, obj)
			}
		case []any:
			cleaned = append(cleaned, SanitizeChoices(v)...)
		default:
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}

// objectFromString decodes a string that looks like a JSON object. Models
// sometimes emit complex choices as quoted strings inside the array.
func objectFromString(s string) map[string]any {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// cleanString trims whitespace and optionally replaces underscores with
// spaces. Wildcard names in includes keep their underscores; everything
// else is display text.
func cleanString(s string, replaceUnderscores bool) string {
	if replaceUnderscores {
		s = strings.ReplaceAll(s, "_", " ")
	}
	return strings.TrimSpace(s)
}

// sanitizeChoiceObject cleans a complex choice object in place, returning
// nil when the object has no usable value.
func sanitizeChoiceObject(obj map[string]any) map[string]any {
	value, _ := obj["value"].(string)
	value = cleanString(value, true)
	if value == "" {
		return nil
	}
	obj["value"] = value

	for key, val := range obj {
		if val == nil {
			delete(obj, key)
		}
	}

	if requires, ok := obj["requires"]; ok {
		if cleaned := sanitizeRequires(requires); cleaned != nil {
			obj["requires"] = cleaned
		} else {
			delete(obj, "requires")
		}
	}

	sanitizeStringList(obj, "tags", true)
	sanitizeStringList(obj, "includes", false)
	return obj
}

// sanitizeRequires cleans a requires map, dropping null entries and empty
// strings. Values may be single strings or lists of strings.
func sanitizeRequires(requires any) map[string]any {
	m, ok := requires.(map[string]any)
	if !ok {
		return nil
	}
	cleaned := make(map[string]any)
	for key, val := range m {
		switch v := val.(type) {
		case string:
			if c := cleanString(v, true); c != "" {
				cleaned[key] = c
			}
		case []any:
			var list []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					if c := cleanString(s, true); c != "" {
						list = append(list, c)
					}
				}
			}
			if len(list) > 0 {
				cleaned[key] = list
			}
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	return cleaned
}

// sanitizeStringList cleans a list-valued field on a choice object,
// removing the field entirely when nothing survives.
func sanitizeStringList(obj map[string]any, key string, replaceUnderscores bool) {
	raw, ok := obj[key]
	if !ok {
		return
	}
	list, ok := raw.([]any)
	if !ok {
		delete(obj, key)
		return
	}
	var cleaned []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			if c := cleanString(s, replaceUnderscores); c != "" {
				cleaned = append(cleaned, c)
			}
		}
	}
	if len(cleaned) == 0 {
		delete(obj, key)
		return
	}
	obj[key] = cleaned
}
