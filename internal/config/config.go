// Package config manages application settings under ~/.promptforge.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promptforge/promptforge/internal/ollama"
)

const (
	configDirName = ".promptforge"
	settingsName  = "settings.json"

	defaultStandardTimeout  = 45
	defaultVariationTimeout = 30
	defaultVisionTimeout    = 90
)

// Settings is the on-disk shape of settings.json. Zero values mean "use the
// default".
type Settings struct {
	OllamaBaseURL string `json:"ollama_base_url,omitempty"`
	DefaultModel  string `json:"default_model,omitempty"`

	// Timeouts in seconds, one per request tier.
	StandardTimeout  int `json:"standard_timeout,omitempty"`
	VariationTimeout int `json:"variation_timeout,omitempty"`
	VisionTimeout    int `json:"vision_timeout,omitempty"`

	// Directory overrides. Relative to nothing; use absolute paths.
	TemplateDir     string `json:"template_dir,omitempty"`
	WildcardDir     string `json:"wildcard_dir,omitempty"`
	SystemPromptDir string `json:"system_prompt_dir,omitempty"`
	HistoryDir      string `json:"history_dir,omitempty"`
}

// Config is the resolved configuration: user settings layered over defaults
// rooted at the config directory.
type Config struct {
	root     string
	Settings Settings
}

// Load reads settings from ~/.promptforge/settings.json. A missing or
// unreadable file yields defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return LoadFrom(filepath.Join(home, configDirName)), nil
}

// LoadFrom reads settings rooted at the given directory.
func LoadFrom(root string) *Config {
	cfg := &Config{root: root}

	data, err := os.ReadFile(filepath.Join(root, settingsName))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("Could not read settings file; using defaults")
		}
		return cfg
	}
	if err := json.Unmarshal(data, &cfg.Settings); err != nil {
		log.Warn().Err(err).Msg("Malformed settings file; using defaults")
		cfg.Settings = Settings{}
	}
	return cfg
}

// Save writes the current settings back to settings.json, creating the
// config directory if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(c.Settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.root, settingsName), data, 0o644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

// EnsureDirs creates the working directories the tool expects.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.TemplateDir(), c.WildcardDir(), c.SystemPromptDir(), c.HistoryDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) Root() string { return c.root }

func (c *Config) BaseURL() string {
	if c.Settings.OllamaBaseURL != "" {
		return c.Settings.OllamaBaseURL
	}
	return ollama.DefaultBaseURL
}

func (c *Config) TemplateDir() string {
	return c.dirOr(c.Settings.TemplateDir, "templates")
}

func (c *Config) WildcardDir() string {
	return c.dirOr(c.Settings.WildcardDir, "wildcards")
}

func (c *Config) SystemPromptDir() string {
	return c.dirOr(c.Settings.SystemPromptDir, "system_prompts")
}

func (c *Config) HistoryDir() string {
	return c.dirOr(c.Settings.HistoryDir, "history")
}

// HistoryFile is the JSONL history path inside the history directory.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.HistoryDir(), "history.jsonl")
}

// Timeouts builds the request timeout tiers from settings, falling back to
// the defaults per tier.
func (c *Config) Timeouts() ollama.Timeouts {
	return ollama.Timeouts{
		Standard:  secondsOr(c.Settings.StandardTimeout, defaultStandardTimeout),
		Variation: secondsOr(c.Settings.VariationTimeout, defaultVariationTimeout),
		Vision:    secondsOr(c.Settings.VisionTimeout, defaultVisionTimeout),
	}
}

func (c *Config) dirOr(override, name string) string {
	if override != "" {
		return override
	}
	return filepath.Join(c.root, name)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
