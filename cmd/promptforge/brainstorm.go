package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/ollama"
	"github.com/promptforge/promptforge/internal/parse"
	"github.com/promptforge/promptforge/internal/template"
)

var saveFlag bool

var brainstormCmd = &cobra.Command{
	Use:   "brainstorm",
	Short: "Use the model to draft new templates and wildcards",
}

var brainstormTemplateCmd = &cobra.Command{
	Use:   "template <concept>",
	Short: "Draft a prompt template for a concept",
	Long: `Asks the model for a reusable prompt template built around __wildcard__
tokens, plus the names of any wildcards the template needs that do not exist
yet. With --save the template is written to the templates directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrainstormTemplate,
}

var brainstormWildcardCmd = &cobra.Command{
	Use:   "wildcard <topic>",
	Short: "Draft a wildcard file for a topic",
	Long: `Asks the model for a wildcard choice list covering a topic and prints it
as JSON. Responses that are not valid JSON degrade to a fallback object
built from whatever list items could be salvaged. With --save the wildcard
is written to the wildcards directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrainstormWildcard,
}

func init() {
	brainstormCmd.PersistentFlags().BoolVar(&saveFlag, "save", false, "Write the result into the config directory")
	brainstormCmd.AddCommand(brainstormTemplateCmd)
	brainstormCmd.AddCommand(brainstormWildcardCmd)
	rootCmd.AddCommand(brainstormCmd)
}

const templateBrainstormSystem = `You are helping design reusable Stable Diffusion prompt templates.
Create a prompt template for the concept the user gives you. Use
double-underscore wildcard tokens (like __location__ or __time_of_day__)
for the parts that should vary between generations.

Respond in EXACTLY this format:
TEMPLATE: [the template text]
NEW_WILDCARDS: [comma-separated wildcard names that need new files, or "none"]`

const wildcardBrainstormPrompt = `You are helping build wildcard files for Stable Diffusion prompt templates.
Create a JSON object for the topic below with this shape:
{"description": "...", "choices": ["...", {"value": "...", "weight": 2}]}
Include 15-25 varied choices. Respond with ONLY the JSON object.

Topic: %s`

func runBrainstormTemplate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	model, err := a.resolveModel()
	if err != nil {
		return err
	}

	concept := args[0]
	messages := []ollama.Message{
		{Role: "system", Content: templateBrainstormSystem},
		{Role: "user", Content: concept},
	}
	response, err := a.client.Chat(context.Background(), model, messages, a.cfg.Timeouts().Vision)
	if err != nil {
		return err
	}

	tmpl, newWildcards := parse.ParseTemplateSections(response)
	fmt.Println(tmpl)
	if len(newWildcards) > 0 {
		fmt.Printf("\nNew wildcards needed: %s\n", strings.Join(newWildcards, ", "))
	}

	if saveFlag {
		name := slugify(concept) + ".txt"
		if err := template.SaveTemplate(name, tmpl+"\n", a.cfg.TemplateDir()); err != nil {
			return err
		}
		fmt.Printf("Saved template to %s\n", filepath.Join(a.cfg.TemplateDir(), name))
	}
	return nil
}

func runBrainstormWildcard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	model, err := a.resolveModel()
	if err != nil {
		return err
	}

	topic := args[0]
	response, err := a.client.Generate(context.Background(), model, fmt.Sprintf(wildcardBrainstormPrompt, topic))
	if err != nil {
		return err
	}

	wildcard := parse.ParseJSONObject(response, topic)
	fmt.Println(wildcard)

	if saveFlag {
		path := filepath.Join(a.cfg.WildcardDir(), slugify(topic)+".json")
		if err := os.WriteFile(path, []byte(wildcard+"\n"), 0o644); err != nil {
			return fmt.Errorf("saving wildcard file: %w", err)
		}
		fmt.Printf("Saved wildcard to %s\n", path)
	}
	return nil
}

// slugify turns free text into a safe lowercase file basename.
func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "untitled"
	}
	return out
}
