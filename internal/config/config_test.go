package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"notesort/internal/config"
	"notesort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := config.New()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, ".", cfg.Root)
	assert.Empty(t, cfg.Rules)
	assert.True(t, cfg.Triggers.OnSave)
	assert.False(t, cfg.Triggers.OnSwitch)
	assert.False(t, cfg.Triggers.OnInterval)
	assert.Equal(t, 10, cfg.Triggers.IntervalMinutes)
	assert.Equal(t, []string{"*.md", "**/*.md"}, cfg.Scan.Include)
	assert.Equal(t, []string{".git/**", ".obsidian/**"}, cfg.Scan.Exclude)
	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, 500, cfg.DebounceMs)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := config.LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.Enabled)
		assert.Equal(t, 500, cfg.DebounceMs)
	})

	t.Run("file values override defaults, absent keys keep them", func(t *testing.T) {
		path := writeConfig(t, `
root: /vault
enabled: false
debounce_ms: 250
triggers:
  on_interval: true
  interval_minutes: 5
`)
		cfg, err := config.LoadConfigFile(path)
		require.NoError(t, err)

		assert.False(t, cfg.Enabled)
		assert.Equal(t, "/vault", cfg.Root)
		assert.Equal(t, 250, cfg.DebounceMs)
		assert.True(t, cfg.Triggers.OnInterval)
		assert.Equal(t, 5, cfg.Triggers.IntervalMinutes)
		// Untouched keys keep their defaults.
		assert.True(t, cfg.Triggers.OnSave)
		assert.Equal(t, []string{"*.md", "**/*.md"}, cfg.Scan.Include)
	})

	t.Run("rules decode with defaults filled", func(t *testing.T) {
		path := writeConfig(t, `
rules:
  - name: journal
    conditions:
      - field: type
        value: journal
    target: Journal
`)
		cfg, err := config.LoadConfigFile(path)
		require.NoError(t, err)
		require.Len(t, cfg.Rules, 1)

		r := cfg.Rules[0]
		assert.True(t, r.Enabled, "enabled defaults to true")
		assert.Equal(t, types.OperatorAnd, r.Operator)
		assert.False(t, r.CreateFolder)
		require.Len(t, r.Conditions, 1)
		assert.Equal(t, types.MatchExact, r.Conditions[0].Match)
	})

	t.Run("legacy single-condition rule is upgraded", func(t *testing.T) {
		path := writeConfig(t, `
rules:
  - name: old-style
    field: category
    value: recipes
    match_type: contains
    target: Recipes
`)
		cfg, err := config.LoadConfigFile(path)
		require.NoError(t, err)
		require.Len(t, cfg.Rules, 1)

		r := cfg.Rules[0]
		require.Len(t, r.Conditions, 1)
		assert.Equal(t, "category", r.Conditions[0].Field)
		assert.Equal(t, "recipes", r.Conditions[0].Value)
		assert.Equal(t, types.MatchContains, r.Conditions[0].Match)
		assert.Equal(t, types.OperatorAnd, r.Operator)
		assert.True(t, r.Enabled)
	})

	t.Run("explicit conditions beat the legacy shape", func(t *testing.T) {
		path := writeConfig(t, `
rules:
  - field: ignored
    value: ignored
    conditions:
      - field: type
        value: note
    target: Notes
`)
		cfg, err := config.LoadConfigFile(path)
		require.NoError(t, err)
		require.Len(t, cfg.Rules, 1)
		require.Len(t, cfg.Rules[0].Conditions, 1)
		assert.Equal(t, "type", cfg.Rules[0].Conditions[0].Field)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := writeConfig(t, "{broken")
		_, err := config.LoadConfigFile(path)
		assert.Error(t, err)
	})

	t.Run("invalid content is an error", func(t *testing.T) {
		for name, content := range map[string]string{
			"rule without target": "rules:\n  - field: a\n    value: b\n",
			"unknown operator":    "rules:\n  - operator: XOR\n    target: T\n    conditions:\n      - field: a\n        value: b\n",
			"unknown match kind":  "rules:\n  - target: T\n    conditions:\n      - field: a\n        value: b\n        match: fuzzy\n",
			"negative debounce":   "debounce_ms: -1\n",
			"bad glob":            "scan:\n  include:\n    - \"[\"\n",
		} {
			t.Run(name, func(t *testing.T) {
				_, err := config.LoadConfigFile(writeConfig(t, content))
				assert.Error(t, err)
			})
		}
	})
}

func TestSaveConfig(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cfg := config.NewTestConfig()
		cfg.Root = "/vault"
		cfg.Rules[0].Enabled = false
		cfg.DebounceMs = 750

		path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
		require.NoError(t, config.SaveConfig(cfg, path))

		loaded, err := config.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, cfg.Root, loaded.Root)
		assert.Equal(t, cfg.DebounceMs, loaded.DebounceMs)
		require.Len(t, loaded.Rules, 1)
		assert.False(t, loaded.Rules[0].Enabled, "disabled state must survive a save")
		assert.Equal(t, cfg.Rules[0].Target, loaded.Rules[0].Target)
		assert.Equal(t, cfg.Rules[0].Conditions, loaded.Rules[0].Conditions)
	})
}

func TestValidate(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		var cfg *config.Config
		assert.Error(t, cfg.Validate())
	})

	t.Run("interval only checked when trigger enabled", func(t *testing.T) {
		cfg := config.New()
		cfg.Triggers.OnInterval = false
		cfg.Triggers.IntervalMinutes = 0
		assert.NoError(t, cfg.Validate())

		cfg.Triggers.OnInterval = true
		assert.Error(t, cfg.Validate())
	})
}
