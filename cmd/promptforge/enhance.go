package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/batch"
	"github.com/promptforge/promptforge/internal/history"
	"github.com/promptforge/promptforge/internal/ollama"
)

var (
	variationsFlag []string
	noSaveFlag     bool
	templateFlag   string
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance [prompts...]",
	Short: "Enhance prompts and generate styled variations",
	Long: `Enhance sends each prompt to the model with the enhancement instruction,
parses the enhanced prompt and recommended checkpoint from the response, and
optionally generates styled variations of the result.

Prompts are read from the arguments, or interactively when none are given.
Results stream to stdout as they complete and are saved to history.
Press Ctrl-C to stop after the current prompt or variation finishes.`,
	RunE: runEnhance,
}

func init() {
	enhanceCmd.Flags().StringSliceVarP(&variationsFlag, "variations", "v", nil, "Variation styles to generate (e.g. cinematic,artistic)")
	enhanceCmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "Do not record results in history")
	enhanceCmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Record this template name with each history entry")
	rootCmd.AddCommand(enhanceCmd)
}

func runEnhance(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	model, err := a.resolveModel()
	if err != nil {
		return err
	}

	prompts := args
	if len(prompts) == 0 {
		prompts = promptForPrompts()
	}
	if len(prompts) == 0 {
		return fmt.Errorf("no prompts to enhance")
	}

	if !a.client.IsServerLive() {
		return ollama.ErrServerUnavailable
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := batch.New(a.client, a.instructions)
	orch.SetCallbacks(printEvent, printResult)

	records, err := orch.ProcessBatch(ctx, prompts, model, variationsFlag, templateFlag)
	if err != nil {
		return err
	}

	if !noSaveFlag {
		saveRecords(a, records)
	}
	return nil
}

// promptForPrompts reads prompts interactively, one per line, until a blank
// line or EOF.
func promptForPrompts() []string {
	fmt.Println("Enter prompts, one per line (blank line to finish):")
	var prompts []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		prompts = append(prompts, line)
	}
	return prompts
}

func printEvent(ev batch.Event) {
	switch e := ev.(type) {
	case batch.EnhancementStart:
		fmt.Printf("\n[%d/%d] Enhancing...\n", e.PromptNum, e.TotalPrompts)
	case batch.VariationStart:
		fmt.Printf("[%d/%d] Creating %s variation...\n", e.PromptNum, e.TotalPrompts, e.VariationType)
	case batch.BatchComplete:
		fmt.Println("\nDone.")
	case batch.BatchCancelled:
		fmt.Println("\nCancelled.")
	}
}

func printResult(stage string, result ollama.Result) {
	fmt.Printf("  %s: %s\n", stage, result.Prompt)
	fmt.Printf("  model: %s\n", result.SDModel)
}

func saveRecords(a *app, records []batch.PromptRecord) {
	store := history.NewStore(a.cfg.HistoryFile())
	for _, record := range records {
		entry := history.Entry{
			OriginalPrompt: record.Original,
			Status:         string(record.Status),
			Enhanced:       record.Enhanced,
			Variations:     record.Variations,
			TemplateName:   record.TemplateName,
		}
		if _, err := store.Append(entry); err != nil {
			log.Warn().Err(err).Msg("Failed to save history entry")
		}
	}
}
