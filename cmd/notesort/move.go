package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notesort/internal/organize"
)

// NewMoveCmd creates the move command: file a single note.
func NewMoveCmd() *cobra.Command {
	var (
		dryRun bool
		root   string
	)

	cmd := &cobra.Command{
		Use:   "move <file>",
		Short: "Move one note based on its metadata",
		Long:  `Evaluate the filing rules against a single note and move it if a rule matches.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("error accessing note: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory, not a note", path)
			}

			if !cfg.Enabled {
				fmt.Println(warningText("notesort is disabled in the configuration"))
				return nil
			}

			engine := organize.NewWithConfig(cfg)
			if root != "" {
				engine.SetRoot(root)
			} else if cfg.Root == "" || cfg.Root == "." {
				// Without a configured vault root, resolve relative
				// targets next to the note itself.
				engine.SetRoot(filepath.Dir(path))
			}
			if dryRun {
				engine.SetDryRun(true)
			}

			result := engine.ProcessFile(path)
			switch {
			case result.Error != nil:
				fmt.Println(errorText(fmt.Sprintf("Not moved: %v", result.Error)))
			case result.Moved:
				fmt.Println(successText(fmt.Sprintf("Moved %s -> %s", path, result.Destination)))
			case result.RuleID != "" && result.Destination == "":
				fmt.Println(infoText("Already in the right folder, nothing to do"))
			case engine.IsDryRun() && result.Destination != "":
				fmt.Println(infoText(fmt.Sprintf("Would move %s -> %s", path, result.Destination)))
			default:
				fmt.Println(infoText("No rule matched this note"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without moving")
	cmd.Flags().StringVarP(&root, "root", "r", "", "Vault root for resolving relative rule targets")

	return cmd
}
