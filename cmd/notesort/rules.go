package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"notesort/internal/frontmatter"
	"notesort/internal/rules"
	"notesort/pkg/types"
)

// NewRulesCmd creates the rules command and its subcommands.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the filing rules",
		Long:  `List, add, remove, enable, disable, and test the filing rules in the configuration.`,
	}

	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesAddCmd())
	cmd.AddCommand(newRulesRemoveCmd())
	cmd.AddCommand(newRulesToggleCmd("enable", true))
	cmd.AddCommand(newRulesToggleCmd("disable", false))
	cmd.AddCommand(newRulesTestCmd())

	return cmd
}

func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured rules in evaluation order",
		Run: func(cmd *cobra.Command, args []string) {
			if len(cfg.Rules) == 0 {
				fmt.Println(infoText("No rules configured"))
				return
			}
			for i, r := range cfg.Rules {
				line := fmt.Sprintf("%2d. %s", i+1, r.String())
				if r.Enabled {
					fmt.Println(line)
				} else {
					fmt.Println(warningText(line))
				}
			}
		},
	}
}

func newRulesAddCmd() *cobra.Command {
	var (
		name   string
		field  string
		value  string
		match  string
		target string
		create bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a single-condition rule",
		Long: `Append a rule with one condition. The new rule is evaluated after
every existing rule; reorder the config file by hand for anything
fancier.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule := types.Rule{
				Name:    name,
				Enabled: true,
				Conditions: []types.Condition{{
					Field: field,
					Value: value,
					Match: types.MatchKind(match),
				}},
				Operator:     types.OperatorAnd,
				Target:       target,
				CreateFolder: create,
			}
			if err := rule.Validate(); err != nil {
				return err
			}

			cfg.Rules = append(cfg.Rules, rule)
			if err := saveConfig(); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Println(successText(fmt.Sprintf("Added rule: %s", rule.String())))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Rule name")
	cmd.Flags().StringVar(&field, "field", "", "Frontmatter field path (e.g. type or tags[0])")
	cmd.Flags().StringVar(&value, "value", "", "Value to compare against")
	cmd.Flags().StringVar(&match, "match", string(types.MatchExact), "Match kind: exact, contains, or regex")
	cmd.Flags().StringVar(&target, "target", "", "Destination folder")
	cmd.Flags().BoolVar(&create, "create-folder", false, "Create the destination folder when missing")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newRulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule>",
		Short: "Remove a rule by number, name, or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := findRule(args[0])
			if err != nil {
				return err
			}
			removed := cfg.Rules[idx]
			cfg.Rules = append(cfg.Rules[:idx], cfg.Rules[idx+1:]...)
			if err := saveConfig(); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Println(successText(fmt.Sprintf("Removed rule: %s", removed.String())))
			return nil
		},
	}
}

func newRulesToggleCmd(verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <rule>",
		Short: capitalize(verb) + " a rule by number, name, or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := findRule(args[0])
			if err != nil {
				return err
			}
			cfg.Rules[idx].Enabled = enabled
			if err := saveConfig(); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Println(successText(fmt.Sprintf("Rule %s: %s", verb+"d", cfg.Rules[idx].String())))
			return nil
		},
	}
}

func newRulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <file>",
		Short: "Show which rule a note would match, without moving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("error reading note: %w", err)
			}
			doc, ok := frontmatter.Parse(string(data))
			if !ok {
				fmt.Println(infoText("Note has no metadata block"))
				return nil
			}
			rule, ok := rules.SelectMatchingRule(doc, cfg.Rules)
			if !ok {
				fmt.Println(infoText("No rule matches this note"))
				return nil
			}
			fmt.Println(successText(fmt.Sprintf("Matches: %s", rule.String())))
			return nil
		},
	}
}

// findRule resolves a rule reference: a 1-based list position, or a
// rule's name or id.
func findRule(ref string) (int, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(cfg.Rules) {
			return 0, fmt.Errorf("no rule number %d (have %d)", n, len(cfg.Rules))
		}
		return n - 1, nil
	}
	for i, r := range cfg.Rules {
		if r.Name == ref || r.ID == ref {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no rule named %q", ref)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
