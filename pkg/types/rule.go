package types

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MatchKind selects the comparison semantics for a condition.
type MatchKind string

const (
	// MatchExact compares the field value and condition value for equality.
	MatchExact MatchKind = "exact"
	// MatchContains checks whether the field value contains the condition value.
	MatchContains MatchKind = "contains"
	// MatchRegex treats the condition value as a regular expression.
	MatchRegex MatchKind = "regex"
)

// Operator combines the results of a rule's conditions.
type Operator string

const (
	// OperatorAnd requires every condition to match.
	OperatorAnd Operator = "AND"
	// OperatorOr requires at least one condition to match.
	OperatorOr Operator = "OR"
)

// Condition is a single predicate over a note's frontmatter.
// Field is a dotted path into the metadata mapping (e.g. "type" or
// "project.tags[0]"), Value the text to compare against.
type Condition struct {
	ID    string    `yaml:"id,omitempty" json:"id,omitempty"`
	Field string    `yaml:"field" json:"field"`
	Value string    `yaml:"value" json:"value"`
	Match MatchKind `yaml:"match,omitempty" json:"match,omitempty"`
}

// Rule decides whether a note should be filed into a target folder.
// Rules are evaluated in their stored order; the first enabled rule
// that matches wins.
type Rule struct {
	ID           string      `yaml:"id,omitempty" json:"id,omitempty"`
	Name         string      `yaml:"name,omitempty" json:"name,omitempty"`
	Enabled      bool        `yaml:"enabled" json:"enabled"`
	Conditions   []Condition `yaml:"conditions" json:"conditions"`
	Operator     Operator    `yaml:"operator,omitempty" json:"operator,omitempty"`
	Target       string      `yaml:"target" json:"target"`
	CreateFolder bool        `yaml:"create_folder,omitempty" json:"create_folder,omitempty"`
}

// ruleDoc mirrors Rule for decoding, with pointer fields where absence
// matters and the legacy single-condition shape alongside.
type ruleDoc struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Enabled    *bool       `yaml:"enabled"`
	Conditions []Condition `yaml:"conditions"`
	Operator   Operator    `yaml:"operator"`
	Target     string      `yaml:"target"`
	Create     *bool       `yaml:"create_folder"`

	// Legacy shape: a single condition spelled at the rule's top level.
	Field     string    `yaml:"field"`
	Value     string    `yaml:"value"`
	MatchType MatchKind `yaml:"match_type"`
}

// UnmarshalYAML decodes a rule, upgrading the legacy single-condition
// shape (top-level field/value/match_type, no conditions list) to a
// one-condition AND rule, and filling defaults for absent fields.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	var doc ruleDoc
	if err := node.Decode(&doc); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}

	r.ID = doc.ID
	r.Name = doc.Name
	r.Conditions = doc.Conditions
	r.Operator = doc.Operator
	r.Target = doc.Target

	r.Enabled = true
	if doc.Enabled != nil {
		r.Enabled = *doc.Enabled
	}
	r.CreateFolder = false
	if doc.Create != nil {
		r.CreateFolder = *doc.Create
	}

	if len(r.Conditions) == 0 && doc.Field != "" {
		r.Conditions = []Condition{{
			Field: doc.Field,
			Value: doc.Value,
			Match: doc.MatchType,
		}}
		r.Operator = OperatorAnd
	}

	if r.Operator == "" {
		r.Operator = OperatorAnd
	}
	for i := range r.Conditions {
		if r.Conditions[i].Match == "" {
			r.Conditions[i].Match = MatchExact
		}
	}
	return nil
}

// Validate reports whether the rule is well formed. An empty condition
// list is allowed (such a rule simply never matches), but each condition
// needs a field and every enum must hold a known value.
func (r *Rule) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("rule %s: target folder is required", r.describe())
	}
	switch r.Operator {
	case OperatorAnd, OperatorOr:
	default:
		return fmt.Errorf("rule %s: unknown operator %q", r.describe(), r.Operator)
	}
	for i, c := range r.Conditions {
		if c.Field == "" {
			return fmt.Errorf("rule %s: condition %d: field is required", r.describe(), i)
		}
		switch c.Match {
		case MatchExact, MatchContains, MatchRegex:
		default:
			return fmt.Errorf("rule %s: condition %d: unknown match kind %q", r.describe(), i, c.Match)
		}
	}
	return nil
}

func (r *Rule) describe() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != "" {
		return r.ID
	}
	return "(unnamed)"
}

// String renders a compact one-line summary, used by the rules command.
func (r *Rule) String() string {
	var conds []string
	for _, c := range r.Conditions {
		conds = append(conds, fmt.Sprintf("%s %s %q", c.Field, c.Match, c.Value))
	}
	state := "enabled"
	if !r.Enabled {
		state = "disabled"
	}
	return fmt.Sprintf("%s [%s] %s -> %s", r.describe(), state,
		strings.Join(conds, fmt.Sprintf(" %s ", r.Operator)), r.Target)
}
