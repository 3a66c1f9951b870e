package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/template"
)

var countFlag int

var generateCmd = &cobra.Command{
	Use:   "generate [template-file]",
	Short: "Expand a prompt template with random wildcard choices",
	Long: `Generate loads a template from the templates directory, substitutes every
__wildcard__ token with a weighted random choice, and prints the result.
With no argument it lists the available templates.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&countFlag, "count", "n", 1, "Number of prompts to generate")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		names := template.ListTemplates(a.cfg.TemplateDir())
		if len(names) == 0 {
			fmt.Printf("No templates found in %s\n", a.cfg.TemplateDir())
			return nil
		}
		fmt.Println("Available templates:")
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	name := args[0]
	if !strings.HasSuffix(name, ".txt") {
		name += ".txt"
	}
	tmpl, err := template.LoadTemplate(name, a.cfg.TemplateDir())
	if err != nil {
		return err
	}

	engine := template.NewEngine()
	engine.LoadWildcards(a.cfg.WildcardDir())

	for i := 0; i < countFlag; i++ {
		fmt.Println(engine.GeneratePrompt(tmpl))
	}
	return nil
}
