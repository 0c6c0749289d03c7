package models

// Validation failure reason codes.
const (
	ReasonDisallowedStatement = "DISALLOWED_STATEMENT"
	ReasonUnknownReference    = "UNKNOWN_REFERENCE"
)

// Verdict is the validator's complete, immutable output for one SQL
// candidate. Valid is false only when the statement shape or a schema
// reference check failed; warnings and suggestions never block execution.
type Verdict struct {
	Valid       bool     `json:"valid"`
	Reason      string   `json:"reason,omitempty"`  // set when Valid is false
	Message     string   `json:"message,omitempty"` // names the first offending identifier
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
