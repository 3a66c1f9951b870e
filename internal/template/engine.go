package template

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"
)

var wildcardToken = regexp.MustCompile(`__([a-zA-Z0-9_.-]+)__`)

// Engine substitutes wildcard tokens in templates. It is not safe for
// concurrent use.
type Engine struct {
	wildcards map[string]Wildcard
	rand      *rand.Rand
}

func NewEngine() *Engine {
	return &Engine{
		wildcards: make(map[string]Wildcard),
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WildcardNames returns the sorted names of all loaded wildcards.
func (e *Engine) WildcardNames() []string {
	names := make([]string, 0, len(e.wildcards))
	for name := range e.wildcards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options returns every choice value for a wildcard, sorted
// case-insensitively. Unknown names return nil.
func (e *Engine) Options(name string) []string {
	w, ok := e.wildcards[name]
	if !ok {
		return nil
	}
	values := make([]string, 0, len(w.Choices))
	for _, c := range w.Choices {
		values = append(values, c.Value)
	}
	sort.Slice(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
	return values
}

// GeneratePrompt substitutes every __name__ token in the template with a
// weighted random choice. Each unique name is resolved once, and earlier
// resolutions form the context that gates choices with requires rules.
// Unknown names are left in place; a name whose choices are all ruled out
// by the context renders as __NO_VALID_CHOICE_FOR_name__.
func (e *Engine) GeneratePrompt(tmpl string) string {
	context := make(map[string]string)
	resolved := make(map[string]string)

	for _, match := range wildcardToken.FindAllStringSubmatch(tmpl, -1) {
		key := match[1]
		if _, done := resolved[key]; done {
			continue
		}
		choice, ok := e.choose(key, context)
		if !ok {
			continue
		}
		resolved[key] = choice
		context[key] = choice
	}

	out := tmpl
	for key, value := range resolved {
		out = strings.ReplaceAll(out, "__"+key+"__", value)
	}
	return strings.TrimSpace(out)
}

// choose picks a weighted random choice for key, honoring requires rules
// against the already-resolved context. The second return is false when the
// wildcard does not exist at all.
func (e *Engine) choose(key string, context map[string]string) (string, bool) {
	w, ok := e.wildcards[key]
	if !ok || len(w.Choices) == 0 {
		return "", false
	}

	var valid []Choice
	for _, c := range w.Choices {
		if satisfied(c.Requires, context) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return fmt.Sprintf("__NO_VALID_CHOICE_FOR_%s__", key), true
	}

	var total float64
	for _, c := range valid {
		total += c.Weight
	}
	target := e.rand.Float64() * total
	for _, c := range valid {
		target -= c.Weight
		if target < 0 {
			return c.Value, true
		}
	}
	return valid[len(valid)-1].Value, true
}

func satisfied(requires, context map[string]string) bool {
	for key, want := range requires {
		if context[key] != want {
			return false
		}
	}
	return true
}
