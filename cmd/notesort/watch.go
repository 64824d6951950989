package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"notesort/internal/watch"
	"notesort/pkg/types"
)

// NewWatchCmd creates the watch command: run the filing daemon in the
// foreground until interrupted.
func NewWatchCmd() *cobra.Command {
	var (
		dryRun  bool
		scanNow bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the vault and file notes as they are saved",
		Long: `Run the filing daemon in the foreground. Notes are processed when
saved (debounced) and, when the interval trigger is enabled, the whole
vault is rescanned periodically. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Enabled {
				fmt.Println(warningText("notesort is disabled in the configuration"))
				return nil
			}

			daemon, err := watch.NewDaemon(cfg)
			if err != nil {
				return fmt.Errorf("error creating daemon: %w", err)
			}
			if dryRun || cfg.Settings.DryRun {
				daemon.SetDryRun(true)
				fmt.Println(infoText("Dry run, notes will not actually move"))
			}

			daemon.SetCallback(func(res types.MoveResult) {
				switch {
				case res.Error != nil:
					fmt.Println(errorText(fmt.Sprintf("%s: %v", res.Source, res.Error)))
				case res.Moved:
					fmt.Println(successText(fmt.Sprintf("%s -> %s", res.Source, res.Destination)))
				}
			})

			if err := daemon.Start(); err != nil {
				return fmt.Errorf("error starting daemon: %w", err)
			}
			fmt.Println(primaryText(fmt.Sprintf("Watching %s (Ctrl-C to stop)", cfg.Root)))

			if scanNow {
				moved := daemon.ScanAll()
				fmt.Println(infoText(fmt.Sprintf("Initial scan moved %d notes", moved)))
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			fmt.Println()
			daemon.Stop()

			status := daemon.Status()
			fmt.Println(infoText(fmt.Sprintf("Processed %d notes, moved %d",
				status.FilesProcessed, status.FilesMoved)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without moving")
	cmd.Flags().BoolVar(&scanNow, "scan", false, "Run a full scan immediately on start")

	return cmd
}
