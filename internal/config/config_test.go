package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadFrom(t.TempDir())

	if cfg.BaseURL() != "http://localhost:11434" {
		t.Errorf("BaseURL = %q", cfg.BaseURL())
	}
	timeouts := cfg.Timeouts()
	if timeouts.Standard != 45*time.Second || timeouts.Variation != 30*time.Second || timeouts.Vision != 90*time.Second {
		t.Errorf("Timeouts = %+v", timeouts)
	}
	if cfg.HistoryFile() != filepath.Join(cfg.Root(), "history", "history.jsonl") {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile())
	}
}

func TestLoadFromReadsSettings(t *testing.T) {
	root := t.TempDir()
	settings := `{
  "ollama_base_url": "http://llm-box:11434",
  "default_model": "llama3",
  "standard_timeout": 60,
  "template_dir": "/srv/templates"
}`
	if err := os.WriteFile(filepath.Join(root, "settings.json"), []byte(settings), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadFrom(root)
	if cfg.BaseURL() != "http://llm-box:11434" {
		t.Errorf("BaseURL = %q", cfg.BaseURL())
	}
	if cfg.Settings.DefaultModel != "llama3" {
		t.Errorf("DefaultModel = %q", cfg.Settings.DefaultModel)
	}
	if cfg.Timeouts().Standard != 60*time.Second {
		t.Errorf("Standard timeout = %v", cfg.Timeouts().Standard)
	}
	if cfg.Timeouts().Variation != 30*time.Second {
		t.Errorf("Variation timeout should default, got %v", cfg.Timeouts().Variation)
	}
	if cfg.TemplateDir() != "/srv/templates" {
		t.Errorf("TemplateDir = %q", cfg.TemplateDir())
	}
	if cfg.WildcardDir() != filepath.Join(root, "wildcards") {
		t.Errorf("WildcardDir = %q", cfg.WildcardDir())
	}
}

func TestLoadFromMalformedSettings(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "settings.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := LoadFrom(root)
	if cfg.BaseURL() != "http://localhost:11434" {
		t.Errorf("BaseURL = %q", cfg.BaseURL())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested")
	cfg := LoadFrom(root)
	cfg.Settings.DefaultModel = "mistral"
	cfg.Settings.OllamaBaseURL = "http://other:11434"

	if err := cfg.Save(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded := LoadFrom(root)
	if reloaded.Settings.DefaultModel != "mistral" {
		t.Errorf("DefaultModel = %q", reloaded.Settings.DefaultModel)
	}
	if reloaded.BaseURL() != "http://other:11434" {
		t.Errorf("BaseURL = %q", reloaded.BaseURL())
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := LoadFrom(root)

	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, dir := range []string{"templates", "wildcards", "system_prompts", "history"} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s missing: %v", dir, err)
		}
	}
}
