package sql

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"
)

// checkInjection scans the literal values of a statement for SQL injection
// fingerprints. The statement shape itself was already vetted by the read
// verb and semicolon layers, so a hit here means a string literal smells
// like a payload; that earns a warning, not a rejection, since legitimate
// text columns can contain SQL-looking content.
func checkInjection(stmt *Statement) []string {
	var warnings []string
	for _, literal := range stringLiterals(stmt.Normalized) {
		if found, fingerprint := libinjection.IsSQLi(literal); found {
			warnings = append(warnings, fmt.Sprintf(
				"string literal %q matches SQL injection fingerprint %q", literal, fingerprint))
		}
	}
	return warnings
}

// stringLiterals extracts the contents of quoted strings, handling both
// backslash and doubled-quote escapes the same way blankStringLiterals does.
func stringLiterals(sql string) []string {
	var literals []string
	var current []rune
	inString := false
	quote := rune(0)
	prev := rune(0)

	for _, ch := range sql {
		if !inString {
			if ch == '\'' || ch == '"' {
				inString = true
				quote = ch
				current = current[:0]
			}
		} else if ch == quote && prev != '\\' {
			inString = false
			if len(current) > 0 {
				literals = append(literals, string(current))
			}
		} else {
			current = append(current, ch)
		}
		prev = ch
	}
	return literals
}
