// Package sql validates generated SQL against the schema model: statement
// shape, reference existence, pluggable domain rules, and JOIN sanity.
package sql

import (
	"regexp"
	"strings"
)

// readVerbs are the statement-leading keywords accepted for execution.
// Everything else is rejected as a disallowed statement.
var readVerbs = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "DESC", "EXPLAIN"}

// TableRef is one table referenced in FROM or JOIN, with its alias if any.
type TableRef struct {
	Name  string
	Alias string
}

// ColumnRef is one qualified column reference, with the qualifier resolved
// through the statement's alias map where possible.
type ColumnRef struct {
	Qualifier string // alias or table name as written
	Table     string // resolved table name ("" when the qualifier is unknown)
	Column    string
}

// JoinCondition is one `a.x = b.y` equality from an ON clause, with both
// sides alias-resolved.
type JoinCondition struct {
	LeftTable   string
	LeftColumn  string
	RightTable  string
	RightColumn string
	Raw         string
}

// Statement is the parsed shape of one SQL candidate. Parsing is regex
// based, the same approach the rest of this package takes: it handles the
// SQL the generation collaborator produces, not arbitrary SQL.
type Statement struct {
	Raw        string
	Normalized string
	Tables     []TableRef
	ColumnRefs []ColumnRef
	Joins      []JoinCondition
}

var (
	tableRefPattern  = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+` + "`?" + `([a-zA-Z_]\w*)` + "`?" + `(?:\s+(?:AS\s+)?([a-zA-Z_]\w*))?`)
	columnRefPattern = regexp.MustCompile(`\b([a-zA-Z_]\w*)\.([a-zA-Z_]\w*)\b`)
	joinOnPattern    = regexp.MustCompile(`(?i)\bON\s+([a-zA-Z_][\w.]*)\s*=\s*([a-zA-Z_][\w.]*)`)
	limitPattern     = regexp.MustCompile(`(?i)\bLIMIT\s+\d`)

	// Keywords that the table-ref pattern can capture as a bogus alias.
	aliasStopwords = map[string]bool{
		"on": true, "where": true, "join": true, "inner": true, "left": true,
		"right": true, "full": true, "cross": true, "outer": true, "using": true,
		"group": true, "order": true, "limit": true, "having": true, "union": true,
		"as": true, "set": true,
	}
)

// ParseStatement extracts the table references, qualified column
// references, and JOIN conditions from a statement. String literals are
// blanked first so their contents cannot masquerade as identifiers.
func ParseStatement(raw string) *Statement {
	normalized := stripTrailingSemicolon(strings.TrimSpace(raw))
	scrubbed := blankStringLiterals(normalized)

	stmt := &Statement{Raw: raw, Normalized: normalized}

	aliases := make(map[string]string)
	for _, m := range tableRefPattern.FindAllStringSubmatch(scrubbed, -1) {
		ref := TableRef{Name: m[1]}
		if alias := m[2]; alias != "" && !aliasStopwords[strings.ToLower(alias)] {
			ref.Alias = alias
		}
		stmt.Tables = append(stmt.Tables, ref)
		aliases[strings.ToLower(ref.Name)] = ref.Name
		if ref.Alias != "" {
			aliases[strings.ToLower(ref.Alias)] = ref.Name
		}
	}

	for _, m := range columnRefPattern.FindAllStringSubmatch(scrubbed, -1) {
		qualifier, column := m[1], m[2]
		stmt.ColumnRefs = append(stmt.ColumnRefs, ColumnRef{
			Qualifier: qualifier,
			Table:     aliases[strings.ToLower(qualifier)],
			Column:    column,
		})
	}

	for _, m := range joinOnPattern.FindAllStringSubmatch(scrubbed, -1) {
		left, right := splitQualified(m[1]), splitQualified(m[2])
		if left == nil || right == nil {
			continue
		}
		stmt.Joins = append(stmt.Joins, JoinCondition{
			LeftTable:   resolveQualifier(aliases, left[0]),
			LeftColumn:  left[1],
			RightTable:  resolveQualifier(aliases, right[0]),
			RightColumn: right[1],
			Raw:         m[0],
		})
	}

	return stmt
}

// TableNames returns the distinct referenced table names in first-seen
// order.
func (s *Statement) TableNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, ref := range s.Tables {
		if !seen[ref.Name] {
			seen[ref.Name] = true
			names = append(names, ref.Name)
		}
	}
	return names
}

// LeadingKeyword returns the statement's first keyword, uppercased.
func (s *Statement) LeadingKeyword() string {
	fields := strings.Fields(s.Normalized)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// IsReadStatement reports whether the leading keyword is an allowed read
// verb.
func (s *Statement) IsReadStatement() bool {
	leading := s.LeadingKeyword()
	for _, verb := range readVerbs {
		if leading == verb {
			return true
		}
	}
	return false
}

// HasLimit reports whether the statement carries a LIMIT clause.
func (s *Statement) HasLimit() bool {
	return limitPattern.MatchString(s.Normalized)
}

func splitQualified(ref string) []string {
	qualifier, column, ok := strings.Cut(ref, ".")
	if !ok || qualifier == "" || column == "" || strings.Contains(column, ".") {
		return nil
	}
	return []string{qualifier, column}
}

func resolveQualifier(aliases map[string]string, qualifier string) string {
	if table, ok := aliases[strings.ToLower(qualifier)]; ok {
		return table
	}
	return qualifier
}

// blankStringLiterals replaces the contents of quoted strings with spaces,
// preserving offsets, so identifier patterns never match inside literals.
// Both backslash escapes and SQL doubled-quote escapes are handled.
func blankStringLiterals(sql string) string {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	out := []rune(sql)
	state := stateNormal
	prev := rune(0)

	for i, ch := range out {
		switch state {
		case stateNormal:
			switch ch {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if ch == '\'' && prev != '\\' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		case stateDoubleQuote:
			if ch == '"' && prev != '\\' {
				state = stateNormal
			} else {
				out[i] = ' '
			}
		}
		prev = ch
	}

	return string(out)
}

// hasSemicolonOutsideStrings reports whether any semicolon survives outside
// string literals; after trailing-semicolon normalization that means
// multiple statements.
func hasSemicolonOutsideStrings(sql string) bool {
	return strings.ContainsRune(blankStringLiterals(sql), ';')
}

// stripTrailingSemicolon removes one trailing semicolon plus surrounding
// whitespace.
func stripTrailingSemicolon(sql string) string {
	sql = strings.TrimRight(sql, " \t\n\r")
	if strings.HasSuffix(sql, ";") {
		sql = strings.TrimRight(strings.TrimSuffix(sql, ";"), " \t\n\r")
	}
	return sql
}
