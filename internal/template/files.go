package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListTemplates returns the .txt template files in dir, sorted
// case-insensitively. A missing directory yields an empty list.
func ListTemplates(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// LoadTemplate reads a template file from dir.
func LoadTemplate(name, dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("loading template %s: %w", name, err)
	}
	return string(data), nil
}

// SaveTemplate writes template content to dir, creating the directory if
// needed.
func SaveTemplate(name, content, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("saving template %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("saving template %s: %w", name, err)
	}
	return nil
}

// ArchiveTemplate moves a template file into an archive subdirectory of dir.
func ArchiveTemplate(name, dir string) error {
	source := filepath.Join(dir, name)
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("archiving template %s: %w", name, err)
	}
	archiveDir := filepath.Join(dir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return fmt.Errorf("archiving template %s: %w", name, err)
	}
	if err := os.Rename(source, filepath.Join(archiveDir, name)); err != nil {
		return fmt.Errorf("archiving template %s: %w", name, err)
	}
	return nil
}
