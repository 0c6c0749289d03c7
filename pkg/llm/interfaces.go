// Package llm generates SQL candidates from natural-language questions
// through OpenAI-compatible and Anthropic endpoints.
package llm

import (
	"context"
)

// SQLGenerator is the generation collaborator: given a question and a
// schema context, produce one SQL candidate. Use this interface for
// dependency injection to enable mocking in tests.
type SQLGenerator interface {
	// GenerateSQL generates a SQL candidate for the question. The returned
	// text is raw model output; callers run it through CleanSQL before
	// validation.
	GenerateSQL(ctx context.Context, question string, schemaContext string) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Ensure both providers implement SQLGenerator at compile time.
var (
	_ SQLGenerator = (*OpenAIClient)(nil)
	_ SQLGenerator = (*AnthropicClient)(nil)
)
