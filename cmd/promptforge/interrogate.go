package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var hintFlag string

var interrogateCmd = &cobra.Command{
	Use:   "interrogate <image-file>",
	Short: "Describe an image with a vision model",
	Long: `Interrogate sends an image to a vision-capable model and prints a prompt
that could recreate it. Use --model to pick a vision model such as llava.`,
	Args: cobra.ExactArgs(1),
	RunE: runInterrogate,
}

func init() {
	interrogateCmd.Flags().StringVar(&hintFlag, "hint", "", "Extra guidance for the description (e.g. 'focus on lighting')")
	rootCmd.AddCommand(interrogateCmd)
}

func runInterrogate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	model, err := a.resolveModel()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	description, err := a.client.InterrogateImage(context.Background(), model, base64.StdEncoding.EncodeToString(data), hintFlag)
	if err != nil {
		return err
	}
	fmt.Println(description)
	return nil
}
