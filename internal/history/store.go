// Package history persists prompt enhancement results as an append-only
// JSONL file.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/promptforge/promptforge/internal/ollama"
)

// Entry is one saved enhancement result.
type Entry struct {
	ID             string                   `json:"id"`
	OriginalPrompt string                   `json:"original_prompt"`
	Status         string                   `json:"status"`
	Enhanced       ollama.Result            `json:"enhanced"`
	Variations     map[string]ollama.Result `json:"variations"`
	Favorite       bool                     `json:"favorite"`
	TemplateName   string                   `json:"template_name,omitempty"`
}

// Store reads and writes history entries in a single JSONL file. Operations
// that modify existing lines rewrite the file atomically.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Append writes one entry to the end of the history file, creating the file
// and its directory if needed. A missing ID is filled in, and the returned
// entry carries the final values.
func (s *Store) Append(entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = "enhanced"
	}
	if entry.Variations == nil {
		entry.Variations = map[string]ollama.Result{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return Entry{}, fmt.Errorf("creating history directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Entry{}, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding history entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return Entry{}, fmt.Errorf("writing history entry: %w", err)
	}
	return entry, nil
}

// Load returns every entry in the history file, oldest first. A missing file
// is an empty history. Malformed lines are skipped with a warning.
func (s *Store) Load() ([]Entry, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.Warn().Err(err).Msg("Skipping malformed history line")
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("reading history file: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given id, or false when it does not exist.
func (s *Store) Get(id string) (Entry, bool, error) {
	entries, err := s.Load()
	if err != nil {
		return Entry{}, false, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, true, nil
		}
	}
	return Entry{}, false, nil
}

// Delete removes the entry with the given id. It reports whether an entry
// was removed.
func (s *Store) Delete(id string) (bool, error) {
	return s.rewrite(func(entry Entry) (Entry, bool) {
		if entry.ID == id {
			return Entry{}, false
		}
		return entry, true
	})
}

// Update replaces the stored entry that has the same ID as the given one.
// It reports whether a matching entry was found.
func (s *Store) Update(updated Entry) (bool, error) {
	return s.rewrite(func(entry Entry) (Entry, bool) {
		if entry.ID == updated.ID {
			return updated, true
		}
		return entry, true
	})
}

// SetFavorite flags or unflags the entry with the given id.
func (s *Store) SetFavorite(id string, favorite bool) (bool, error) {
	entry, ok, err := s.Get(id)
	if err != nil || !ok {
		return false, err
	}
	entry.Favorite = favorite
	return s.Update(entry)
}

// rewrite streams every entry through transform into a temp file and swaps
// it into place. transform returns the (possibly modified) entry and whether
// to keep it. The swap only happens when at least one entry changed.
func (s *Store) rewrite(transform func(Entry) (Entry, bool)) (bool, error) {
	entries, err := s.Load()
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "history-*.jsonl")
	if err != nil {
		return false, fmt.Errorf("creating temp history file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	changed := false
	w := bufio.NewWriter(tmp)
	for _, entry := range entries {
		out, keep := transform(entry)
		if !keep {
			changed = true
			continue
		}
		if out.ID != entry.ID || !sameEntry(out, entry) {
			changed = true
		}
		line, err := json.Marshal(out)
		if err != nil {
			tmp.Close()
			return false, fmt.Errorf("encoding history entry: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			return false, fmt.Errorf("writing temp history file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return false, fmt.Errorf("flushing temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("closing temp history file: %w", err)
	}

	if !changed {
		return false, nil
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return false, fmt.Errorf("replacing history file: %w", err)
	}
	return true, nil
}

func sameEntry(a, b Entry) bool {
	aj, err1 := json.Marshal(a)
	bj, err2 := json.Marshal(b)
	return err1 == nil && err2 == nil && string(aj) == string(bj)
}
