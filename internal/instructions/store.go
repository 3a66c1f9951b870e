// Package instructions resolves the instruction-prefix text prepended to
// every model call. Defaults are embedded at compile time; users can
// override any instruction (or add new variation types) by dropping a
// .txt file with the instruction's name into the system prompts directory.
package instructions

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

//go:embed prompts/*.txt
var defaults embed.FS

// KeyEnhancement names the primary enhancement instruction. Every other
// key is a variation type.
const KeyEnhancement = "enhancement"

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Store resolves instruction text by key, preferring on-disk overrides
// over the embedded defaults. Lookups are cached: instruction files are
// re-read at most once per cacheTTL.
type Store struct {
	overrideDir string
	cache       *gocache.Cache
}

// NewStore creates a Store. overrideDir may be empty, in which case only
// the embedded defaults are served.
func NewStore(overrideDir string) *Store {
	return &Store{
		overrideDir: overrideDir,
		cache:       gocache.New(cacheTTL, cacheCleanup),
	}
}

// Instruction returns the instruction text for a key ("enhancement" or a
// variation-type name).
func (s *Store) Instruction(key string) (string, error) {
	if cached, ok := s.cache.Get(key); ok {
		return cached.(string), nil
	}

	text, err := s.load(key)
	if err != nil {
		return "", err
	}
	s.cache.SetDefault(key, text)
	return text, nil
}

func (s *Store) load(key string) (string, error) {
	if s.overrideDir != "" {
		path := filepath.Join(s.overrideDir, key+".txt")
		data, err := os.ReadFile(path)
		if err == nil {
			log.Debug().Str("key", key).Str("path", path).Msg("Loaded instruction override")
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("Could not read instruction override, using default")
		}
	}

	data, err := defaults.ReadFile("prompts/" + key + ".txt")
	if err != nil {
		return "", fmt.Errorf("no instruction named %q", key)
	}
	return string(data), nil
}

// Variations lists the available variation types: every embedded or
// override instruction except the enhancement one, sorted.
func (s *Store) Variations() []string {
	seen := make(map[string]bool)

	entries, err := defaults.ReadDir("prompts")
	if err == nil {
		for _, e := range entries {
			seen[strings.TrimSuffix(e.Name(), ".txt")] = true
		}
	}
	if s.overrideDir != "" {
		files, err := os.ReadDir(s.overrideDir)
		if err == nil {
			for _, f := range files {
				if !f.IsDir() && strings.HasSuffix(f.Name(), ".txt") {
					seen[strings.TrimSuffix(f.Name(), ".txt")] = true
				}
			}
		}
	}
	delete(seen, KeyEnhancement)

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
