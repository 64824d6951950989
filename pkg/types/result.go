package types

// MoveResult holds the outcome of a filing attempt for a single note.
type MoveResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	RuleID      string `json:"rule_id,omitempty"`
	Moved       bool   `json:"moved"`
	Error       error  `json:"error,omitempty"`
}
