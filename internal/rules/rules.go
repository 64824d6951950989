// Package rules evaluates filing rules against a note's parsed
// frontmatter. Evaluation is pure: conditions read the metadata
// snapshot and never touch the filesystem.
package rules

import (
	"regexp"
	"strings"

	"notesort/internal/frontmatter"
	"notesort/internal/log"
	"notesort/pkg/types"
)

// EvaluateCondition decides whether a single condition matches the
// document. An absent field never matches, regardless of match kind.
// The resolved value is compared in its default textual form: exact and
// contains ignore case on both sides; regex compiles the condition
// value case-insensitively and tests it against the original-case text.
// A pattern that fails to compile counts as no-match, not an error.
func EvaluateCondition(doc *frontmatter.Mapping, c types.Condition) bool {
	value, ok := frontmatter.GetField(doc, c.Field)
	if !ok {
		return false
	}
	text := value.String()

	switch c.Match {
	case types.MatchContains:
		return strings.Contains(strings.ToLower(text), strings.ToLower(c.Value))
	case types.MatchRegex:
		re, err := regexp.Compile("(?i)" + c.Value)
		if err != nil {
			log.Debugf("rules: bad pattern %q: %v", c.Value, err)
			return false
		}
		return re.MatchString(text)
	default:
		// MatchExact, and the default for an unset kind.
		return strings.EqualFold(text, c.Value)
	}
}

// EvaluateRule combines a rule's conditions under its operator. A rule
// with no conditions never matches. Conditions are pure predicates, so
// combination order carries no semantics.
func EvaluateRule(doc *frontmatter.Mapping, r types.Rule) bool {
	if len(r.Conditions) == 0 {
		return false
	}

	switch r.Operator {
	case types.OperatorOr:
		for _, c := range r.Conditions {
			if EvaluateCondition(doc, c) {
				return true
			}
		}
		return false
	default:
		// OperatorAnd, and the default for an unset operator.
		for _, c := range r.Conditions {
			if !EvaluateCondition(doc, c) {
				return false
			}
		}
		return true
	}
}

// SelectMatchingRule walks the rules in their stored order, skipping
// disabled ones, and returns the first rule that matches. Order is
// semantically significant: evaluation stops at the first hit.
func SelectMatchingRule(doc *frontmatter.Mapping, rs []types.Rule) (*types.Rule, bool) {
	for i := range rs {
		if !rs[i].Enabled {
			continue
		}
		if EvaluateRule(doc, rs[i]) {
			return &rs[i], true
		}
	}
	return nil, false
}
