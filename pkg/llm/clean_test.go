package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSQL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare statement",
			raw:  "SELECT name FROM patient LIMIT 10",
			want: "SELECT name FROM patient LIMIT 10",
		},
		{
			name: "surrounding whitespace",
			raw:  "\n  SELECT 1\n",
			want: "SELECT 1",
		},
		{
			name: "sql code fence",
			raw:  "```sql\nSELECT COUNT(*) FROM visit\n```",
			want: "SELECT COUNT(*) FROM visit",
		},
		{
			name: "plain code fence",
			raw:  "```\nSELECT 1\n```",
			want: "SELECT 1",
		},
		{
			name: "think block then fence",
			raw:  "<think>the user wants a count\nof visits</think>\n```sql\nSELECT COUNT(*) FROM visit\n```",
			want: "SELECT COUNT(*) FROM visit",
		},
		{
			name: "conversational prefix",
			raw:  "SQL query: SELECT name FROM doctor",
			want: "SELECT name FROM doctor",
		},
		{
			name: "stacked prefixes",
			raw:  "Answer: query: SELECT 1",
			want: "SELECT 1",
		},
		{
			name: "prose around the statement",
			raw:  "Sure, here you go:\nSELECT name\nFROM patient\n\nLet me know if you need anything else.",
			want: "SELECT name\nFROM patient",
		},
		{
			name: "multiline statement inside fence",
			raw:  "```sql\nSELECT p.name\nFROM patient p\nJOIN visit v ON v.patient_id = p.patient_id\n```",
			want: "SELECT p.name\nFROM patient p\nJOIN visit v ON v.patient_id = p.patient_id",
		},
		{
			name: "with clause",
			raw:  "WITH recent AS (SELECT 1) SELECT * FROM recent",
			want: "WITH recent AS (SELECT 1) SELECT * FROM recent",
		},
		{
			name: "no sql at all",
			raw:  "I cannot answer that question from the schema.",
			want: "",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSQL(tt.raw))
		})
	}
}
