// Package template loads prompt templates and wildcard files and expands
// __name__ tokens into weighted random choices.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Choice is a single wildcard option. Plain strings in a wildcard file
// decode as a Choice with weight 1 and no rules.
type Choice struct {
	Value    string            `json:"value"`
	Weight   float64           `json:"weight,omitempty"`
	Requires map[string]string `json:"requires,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Includes []string          `json:"includes,omitempty"`
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Choice{Value: s, Weight: 1}
		return nil
	}

	type choiceAlias Choice
	var a choiceAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Choice(a)
	if c.Weight <= 0 {
		c.Weight = 1
	}
	return nil
}

// Wildcard is one named pool of choices, loaded from a .json or legacy
// .txt wildcard file.
type Wildcard struct {
	Description string   `json:"description"`
	Choices     []Choice `json:"choices"`
}

// LoadWildcards scans the given directories for wildcard files and replaces
// the engine's wildcard set. For the same basename a .json file wins over a
// .txt file, and later directories override earlier ones. Files that fail to
// parse are skipped with a warning.
func (e *Engine) LoadWildcards(dirs ...string) {
	type candidate struct {
		jsonPath string
		txtPath  string
	}
	found := make(map[string]*candidate)

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			c := found[base]
			if c == nil {
				c = &candidate{}
				found[base] = c
			}
			switch ext {
			case ".json":
				c.jsonPath = filepath.Join(dir, name)
			case ".txt":
				c.txtPath = filepath.Join(dir, name)
			}
		}
	}

	wildcards := make(map[string]Wildcard, len(found))
	for base, c := range found {
		var (
			w   Wildcard
			err error
		)
		switch {
		case c.jsonPath != "":
			w, err = loadJSONWildcard(c.jsonPath)
		case c.txtPath != "":
			w, err = loadTextWildcard(c.txtPath)
		default:
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("wildcard", base).Msg("Skipping unreadable wildcard file")
			continue
		}
		wildcards[base] = w
	}

	e.wildcards = wildcards
}

func loadJSONWildcard(path string) (Wildcard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Wildcard{}, err
	}
	var w Wildcard
	if err := json.Unmarshal(data, &w); err != nil {
		return Wildcard{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return w, nil
}

// loadTextWildcard converts a legacy one-choice-per-line .txt file into the
// standard wildcard structure.
func loadTextWildcard(path string) (Wildcard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Wildcard{}, err
	}
	w := Wildcard{Description: fmt.Sprintf("Legacy wildcard from %s.", filepath.Base(path))}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		w.Choices = append(w.Choices, Choice{Value: line, Weight: 1})
	}
	return w, nil
}
