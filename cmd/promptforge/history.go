package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptforge/promptforge/internal/history"
)

var favoritesOnlyFlag bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage the prompt history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved enhancement results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		entries, err := history.NewStore(a.cfg.HistoryFile()).Load()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("History is empty.")
			return nil
		}
		for _, entry := range entries {
			if favoritesOnlyFlag && !entry.Favorite {
				continue
			}
			marker := " "
			if entry.Favorite {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, entry.ID, entry.OriginalPrompt)
			if entry.Enhanced.Prompt != "" {
				fmt.Printf("    enhanced: %s\n", entry.Enhanced.Prompt)
			}
			for name, variation := range entry.Variations {
				fmt.Printf("    %s: %s\n", name, variation.Prompt)
			}
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		removed, err := history.NewStore(a.cfg.HistoryFile()).Delete(args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no history entry with id %s", args[0])
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle the favorite flag on a history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		store := history.NewStore(a.cfg.HistoryFile())
		entry, ok, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no history entry with id %s", args[0])
		}
		if _, err := store.SetFavorite(entry.ID, !entry.Favorite); err != nil {
			return err
		}
		if entry.Favorite {
			fmt.Println("Unfavorited.")
		} else {
			fmt.Println("Favorited.")
		}
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the history as a zstd-compressed archive",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		path := a.cfg.HistoryFile() + ".zst"
		if len(args) == 1 {
			path = args[0]
		}
		if err := history.NewStore(a.cfg.HistoryFile()).ExportFile(path); err != nil {
			return err
		}
		fmt.Printf("Exported history to %s\n", path)
		return nil
	},
}

func init() {
	historyListCmd.Flags().BoolVar(&favoritesOnlyFlag, "favorites", false, "Only show favorited entries")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
