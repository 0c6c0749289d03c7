package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementTablesAndAliases(t *testing.T) {
	stmt := ParseStatement("SELECT p.name, v.visit_date FROM patient p JOIN visit AS v ON v.patient_id = p.patient_id")

	require.Len(t, stmt.Tables, 2)
	assert.Equal(t, TableRef{Name: "patient", Alias: "p"}, stmt.Tables[0])
	assert.Equal(t, TableRef{Name: "visit", Alias: "v"}, stmt.Tables[1])

	require.Len(t, stmt.Joins, 1)
	join := stmt.Joins[0]
	assert.Equal(t, "visit", join.LeftTable)
	assert.Equal(t, "patient_id", join.LeftColumn)
	assert.Equal(t, "patient", join.RightTable)
	assert.Equal(t, "patient_id", join.RightColumn)
}

func TestParseStatementResolvesQualifiers(t *testing.T) {
	stmt := ParseStatement("SELECT p.name FROM patient p WHERE p.birth_date > '1990-01-01'")

	require.NotEmpty(t, stmt.ColumnRefs)
	for _, ref := range stmt.ColumnRefs {
		assert.Equal(t, "patient", ref.Table)
	}
}

func TestParseStatementKeywordNotAlias(t *testing.T) {
	stmt := ParseStatement("SELECT name FROM patient WHERE name LIKE 'A%'")

	require.Len(t, stmt.Tables, 1)
	assert.Equal(t, "", stmt.Tables[0].Alias)
}

func TestParseStatementBacktickedTable(t *testing.T) {
	stmt := ParseStatement("SELECT * FROM `visit` LIMIT 10")

	require.Len(t, stmt.Tables, 1)
	assert.Equal(t, "visit", stmt.Tables[0].Name)
	assert.True(t, stmt.HasLimit())
}

func TestParseStatementIgnoresLiterals(t *testing.T) {
	stmt := ParseStatement("SELECT name FROM patient WHERE address = 'FROM evil JOIN street 7.7'")

	require.Len(t, stmt.Tables, 1)
	assert.Equal(t, "patient", stmt.Tables[0].Name)
	assert.Empty(t, stmt.ColumnRefs)
}

func TestTableNamesDeduplicated(t *testing.T) {
	stmt := ParseStatement("SELECT * FROM visit v1 JOIN visit v2 ON v1.visit_id = v2.visit_id")
	assert.Equal(t, []string{"visit"}, stmt.TableNames())
}

func TestLeadingKeywordAndReadVerbs(t *testing.T) {
	tests := []struct {
		sql    string
		verb   string
		isRead bool
	}{
		{sql: "SELECT 1", verb: "SELECT", isRead: true},
		{sql: "  select 1", verb: "SELECT", isRead: true},
		{sql: "WITH x AS (SELECT 1) SELECT * FROM x", verb: "WITH", isRead: true},
		{sql: "SHOW TABLES", verb: "SHOW", isRead: true},
		{sql: "DESCRIBE patient", verb: "DESCRIBE", isRead: true},
		{sql: "EXPLAIN SELECT 1", verb: "EXPLAIN", isRead: true},
		{sql: "DELETE FROM patient", verb: "DELETE", isRead: false},
		{sql: "UPDATE patient SET name = 'x'", verb: "UPDATE", isRead: false},
		{sql: "DROP TABLE patient", verb: "DROP", isRead: false},
		{sql: "", verb: "", isRead: false},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			stmt := ParseStatement(tt.sql)
			assert.Equal(t, tt.verb, stmt.LeadingKeyword())
			assert.Equal(t, tt.isRead, stmt.IsReadStatement())
		})
	}
}

func TestSemicolonHandling(t *testing.T) {
	// A single trailing semicolon is normalized away.
	stmt := ParseStatement("SELECT 1;")
	assert.Equal(t, "SELECT 1", stmt.Normalized)
	assert.False(t, hasSemicolonOutsideStrings(stmt.Normalized))

	// A semicolon between statements survives normalization.
	stmt = ParseStatement("SELECT 1; DROP TABLE patient")
	assert.True(t, hasSemicolonOutsideStrings(stmt.Normalized))

	// Semicolons inside string literals are data, not separators.
	stmt = ParseStatement("SELECT * FROM patient WHERE address = 'a;b'")
	assert.False(t, hasSemicolonOutsideStrings(stmt.Normalized))
}

func TestBlankStringLiterals(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single quotes", in: "x = 'abc'", want: "x = '   '"},
		{name: "double quotes", in: `x = "ab"`, want: `x = "  "`},
		{name: "backslash escape", in: `x = 'a\'b'`, want: `x = '    '`},
		{name: "no literals", in: "SELECT 1", want: "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blankStringLiterals(tt.in))
		})
	}
}
