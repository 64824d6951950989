package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notesort/internal/organize"
)

// NewScanCmd creates the scan command: file every note under a directory.
func NewScanCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory and move every note a rule matches",
		Long: `Walk the directory, collect the notes the scan patterns select,
and run the filing rules over each one. A note that fails to move does
not stop the rest of the batch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cfg.Root
			if len(args) > 0 {
				root = args[0]
			}
			if root == "" {
				root = "."
			}

			info, err := os.Stat(root)
			if err != nil {
				return fmt.Errorf("error accessing directory: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", root)
			}

			if !cfg.Enabled {
				fmt.Println(warningText("notesort is disabled in the configuration"))
				return nil
			}

			paths, err := organize.Collect(root, cfg.Scan)
			if err != nil {
				return fmt.Errorf("error collecting notes: %w", err)
			}
			if len(paths) == 0 {
				fmt.Println(infoText("No notes to process"))
				return nil
			}
			fmt.Println(infoText(fmt.Sprintf("Processing %d notes...", len(paths))))

			engine := organize.NewWithConfig(cfg)
			engine.SetRoot(root)
			if dryRun || cfg.Settings.DryRun {
				engine.SetDryRun(true)
			}

			// Failures are logged by the engine; the batch surface only
			// shows what moved and the aggregate count.
			results, moved := engine.ProcessAll(paths)
			for _, res := range results {
				switch {
				case res.Moved:
					fmt.Println(successText(fmt.Sprintf("  %s -> %s", res.Source, res.Destination)))
				case engine.IsDryRun() && res.Error == nil && res.Destination != "":
					fmt.Println(infoText(fmt.Sprintf("  would move %s -> %s", res.Source, res.Destination)))
				}
			}

			if engine.IsDryRun() {
				fmt.Println(infoText("Dry run, no notes were moved"))
			} else {
				fmt.Println(successText(fmt.Sprintf("Moved %d of %d notes", moved, len(paths))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without moving")

	return cmd
}
