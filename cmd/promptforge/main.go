package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/config"
	"github.com/promptforge/promptforge/internal/instructions"
	"github.com/promptforge/promptforge/internal/logging"
	"github.com/promptforge/promptforge/internal/ollama"
)

// CLI flags shared across subcommands
var (
	modelFlag   string
	baseURLFlag string
)

var rootCmd = &cobra.Command{
	Use:   "promptforge",
	Short: "AI-powered enhancement for image generation prompts",
	Long: `Promptforge enhances Stable Diffusion prompts with a local Ollama model.

It expands prompt templates with wildcards, asks the model to enhance each
prompt and recommend a checkpoint, generates styled variations, and keeps a
searchable history of every result.

Examples:
  promptforge enhance "a fox in a misty forest"
  promptforge enhance --variations cinematic,artistic "a ruined castle"
  promptforge generate scenes.txt --count 5
  promptforge brainstorm template "cyberpunk street markets"
  promptforge models`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "Ollama model to use (defaults to the configured default_model)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Ollama server base URL (defaults to the configured ollama_base_url)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the pieces every subcommand needs.
type app struct {
	cfg          *config.Config
	client       *ollama.Client
	instructions *instructions.Store
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	baseURL := baseURLFlag
	if baseURL == "" {
		baseURL = cfg.BaseURL()
	}

	return &app{
		cfg:          cfg,
		client:       ollama.NewClient(baseURL, cfg.Timeouts()),
		instructions: instructions.NewStore(cfg.SystemPromptDir()),
	}, nil
}

// resolveModel picks the model from the flag or the configured default.
func (a *app) resolveModel() (string, error) {
	if modelFlag != "" {
		return modelFlag, nil
	}
	if a.cfg.Settings.DefaultModel != "" {
		return a.cfg.Settings.DefaultModel, nil
	}
	return "", fmt.Errorf("no model specified; pass --model or set default_model in %s", a.cfg.Root())
}
