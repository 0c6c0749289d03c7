package llm

import (
	"fmt"
	"strings"
)

// sqlSystemPrompt instructs the model to emit exactly one read-only
// statement. The validator still enforces this; the prompt just raises the
// odds of a clean first candidate.
const sqlSystemPrompt = `You are a SQL generator for a relational database.
Given a question and a schema description, respond with exactly one SQL statement and nothing else.
Rules:
- Use only the tables and columns listed in the schema description.
- Use the join path given in the schema description when joining tables.
- Only read statements are allowed: SELECT, SHOW, DESCRIBE, EXPLAIN.
- Do not include explanations, markdown fences, or more than one statement.`

// buildPrompt renders the user prompt for one generation request.
func buildPrompt(question, schemaContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Schema:\n%s\n\n", strings.TrimSpace(schemaContext))
	fmt.Fprintf(&b, "Question: %s\n", strings.TrimSpace(question))
	b.WriteString("SQL:")
	return b.String()
}
