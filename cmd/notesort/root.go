package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notesort/internal/config"
	"notesort/internal/log"
)

var (
	cfgFile string
	debug   bool
	cfg     *config.Config
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "notesort",
		Short: "File notes into folders based on their frontmatter",
		Long: `notesort reads the metadata block at the top of a note, evaluates
your filing rules against it, and moves the note into the folder the
first matching rule names. Run it on one note, over a whole vault, or
as a daemon that reacts to saves.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetDebug(debug)

			var err error
			if cfgFile != "" {
				cfg, err = config.LoadConfigFile(cfgFile)
			} else {
				cfg, err = config.LoadConfig()
			}
			if err != nil {
				fmt.Println(warningText(fmt.Sprintf("Warning: %v", err)))
				fmt.Println(infoText("Using default settings. Run 'notesort rules add' to configure."))
				cfg = config.New()
			}
			if cfg.Settings.LogLevel == "debug" {
				log.SetDebug(true)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/notesort/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(NewMoveCmd())
	rootCmd.AddCommand(NewScanCmd())
	rootCmd.AddCommand(NewRulesCmd())
	rootCmd.AddCommand(NewWatchCmd())

	return rootCmd
}

// configPath returns where mutations of the loaded config are persisted.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return config.DefaultPath(home), nil
}

// saveConfig persists the current configuration after a mutation.
func saveConfig() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return config.SaveConfig(cfg, path)
}
