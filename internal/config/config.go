// Package config loads and persists the notesort configuration.
// Configuration is an explicit value handed to the evaluator and the
// move engine on every invocation; mutations go through SaveConfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"notesort/pkg/types"
)

// Triggers selects which host events run the filing pipeline.
type Triggers struct {
	OnSave          bool `yaml:"on_save" json:"on_save"`                   // run when a watched note is written
	OnSwitch        bool `yaml:"on_switch" json:"on_switch"`               // run when the active note changes
	OnInterval      bool `yaml:"on_interval" json:"on_interval"`           // rescan every IntervalMinutes
	IntervalMinutes int  `yaml:"interval_minutes" json:"interval_minutes"` // interval length, > 0
}

// Scan controls which files the batch scanner considers.
type Scan struct {
	Include []string `yaml:"include" json:"include"` // glob patterns, slash-separated
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// Settings holds behavioral switches shared by all commands.
type Settings struct {
	DryRun   bool   `yaml:"dry_run" json:"dry_run"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Config is the persisted application configuration.
type Config struct {
	Enabled    bool         `yaml:"enabled" json:"enabled"`
	Root       string       `yaml:"root" json:"root"` // vault root; relative rule targets resolve against it
	Rules      []types.Rule `yaml:"rules" json:"rules"`
	Triggers   Triggers     `yaml:"triggers" json:"triggers"`
	Scan       Scan         `yaml:"scan" json:"scan"`
	Settings   Settings     `yaml:"settings" json:"settings"`
	DebounceMs int          `yaml:"debounce_ms" json:"debounce_ms"` // save-trigger coalescing window
}

// fileConfig mirrors Config for decoding, with pointers where absence
// must be distinguished from the zero value.
type fileConfig struct {
	Enabled    *bool        `yaml:"enabled"`
	Root       string       `yaml:"root"`
	Rules      []types.Rule `yaml:"rules"`
	Triggers   struct {
		OnSave          *bool `yaml:"on_save"`
		OnSwitch        *bool `yaml:"on_switch"`
		OnInterval      *bool `yaml:"on_interval"`
		IntervalMinutes int   `yaml:"interval_minutes"`
	} `yaml:"triggers"`
	Scan       Scan     `yaml:"scan"`
	Settings   Settings `yaml:"settings"`
	DebounceMs *int     `yaml:"debounce_ms"`
}

// LoadConfig loads configuration from the default location
// (~/.config/notesort/config.yaml).
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(DefaultPath(home))
}

// DefaultPath returns the configuration path under the given home dir.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "notesort", "config.yaml")
}

// LoadConfigFile loads configuration from a specific file path. If the
// file doesn't exist, returns default configuration. Legacy rules (a
// single condition spelled at the rule's top level) are upgraded in
// place during decoding; see types.Rule.UnmarshalYAML.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var tmp fileConfig
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if tmp.Enabled != nil {
		cfg.Enabled = *tmp.Enabled
	}
	if tmp.Root != "" {
		cfg.Root = tmp.Root
	}
	if tmp.Rules != nil {
		cfg.Rules = tmp.Rules
	}
	if tmp.Triggers.OnSave != nil {
		cfg.Triggers.OnSave = *tmp.Triggers.OnSave
	}
	if tmp.Triggers.OnSwitch != nil {
		cfg.Triggers.OnSwitch = *tmp.Triggers.OnSwitch
	}
	if tmp.Triggers.OnInterval != nil {
		cfg.Triggers.OnInterval = *tmp.Triggers.OnInterval
	}
	if tmp.Triggers.IntervalMinutes > 0 {
		cfg.Triggers.IntervalMinutes = tmp.Triggers.IntervalMinutes
	}
	if len(tmp.Scan.Include) > 0 {
		cfg.Scan.Include = tmp.Scan.Include
	}
	if len(tmp.Scan.Exclude) > 0 {
		cfg.Scan.Exclude = tmp.Scan.Exclude
	}
	cfg.Settings.DryRun = tmp.Settings.DryRun
	if tmp.Settings.LogLevel != "" {
		cfg.Settings.LogLevel = tmp.Settings.LogLevel
	}
	if tmp.DebounceMs != nil {
		cfg.DebounceMs = *tmp.DebounceMs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns the default configuration with safe defaults.
func defaultConfig() *Config {
	cfg := &Config{
		Enabled: true,
		Root:    ".",
	}
	cfg.Rules = []types.Rule{}
	cfg.Triggers.OnSave = true
	cfg.Triggers.OnSwitch = false
	cfg.Triggers.OnInterval = false
	cfg.Triggers.IntervalMinutes = 10
	cfg.Scan.Include = []string{"*.md", "**/*.md"}
	cfg.Scan.Exclude = []string{".git/**", ".obsidian/**"}
	cfg.Settings.DryRun = false
	cfg.Settings.LogLevel = "info"
	cfg.DebounceMs = 500
	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	for i := range c.Rules {
		if err := c.Rules[i].Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}

	if c.Triggers.OnInterval && c.Triggers.IntervalMinutes < 1 {
		return fmt.Errorf("interval_minutes must be >= 1 when the interval trigger is enabled")
	}
	if c.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms must be >= 0")
	}

	for _, pattern := range append(append([]string{}, c.Scan.Include...), c.Scan.Exclude...) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("invalid scan pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// NewTestConfig creates a configuration instance for testing purposes.
func NewTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Rules = []types.Rule{
		{
			ID:      "daily",
			Enabled: true,
			Conditions: []types.Condition{
				{Field: "type", Value: "daily", Match: types.MatchExact},
			},
			Operator:     types.OperatorAnd,
			Target:       "Journal/Daily",
			CreateFolder: true,
		},
	}
	return cfg
}
