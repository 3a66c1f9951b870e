package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the Ollama server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		models, err := a.client.ListModels(context.Background())
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Println("No models installed. Pull one with: ollama pull <model>")
			return nil
		}
		for _, model := range models {
			marker := "  "
			if model == a.cfg.Settings.DefaultModel {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, model)
		}
		return nil
	},
}

var unloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Ask the Ollama server to unload the current model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		model, err := a.resolveModel()
		if err != nil {
			return err
		}
		a.client.Unload(context.Background(), model)
		fmt.Printf("Requested unload of %s\n", model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(unloadCmd)
}
