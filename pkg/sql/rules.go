package sql

import (
	"fmt"

	"github.com/klinika-ai/klinika-engine/pkg/schema"
)

// FindingKind separates advisory output: warnings flag something the caller
// should know, suggestions propose an improvement. Neither blocks
// execution.
type FindingKind string

const (
	FindingWarning    FindingKind = "warning"
	FindingSuggestion FindingKind = "suggestion"
)

// Finding is one advisory produced by a domain rule.
type Finding struct {
	Kind    FindingKind
	Message string
}

// DomainRule is one pluggable domain check. New checks register another
// rule; the validator never branches on rule specifics.
type DomainRule interface {
	Name() string
	Check(stmt *Statement, model *schema.Model) []Finding
}

// DefaultRules returns the standard rule set.
func DefaultRules(largeTableRows int64) []DomainRule {
	return []DomainRule{
		&RowLimitRule{LargeTableRows: largeTableRows},
		&SensitiveColumnRule{},
	}
}

// RowLimitRule suggests a LIMIT clause when a statement touches a table
// whose declared row count exceeds the threshold. Performance advice, not
// an error.
type RowLimitRule struct {
	// LargeTableRows is the row-count threshold; 0 disables the rule.
	LargeTableRows int64
}

func (r *RowLimitRule) Name() string { return "row_limit" }

func (r *RowLimitRule) Check(stmt *Statement, model *schema.Model) []Finding {
	if r.LargeTableRows <= 0 || stmt.HasLimit() {
		return nil
	}
	for _, name := range stmt.TableNames() {
		t := model.Table(name)
		if t == nil || t.RowCount < r.LargeTableRows {
			continue
		}
		return []Finding{{
			Kind: FindingSuggestion,
			Message: fmt.Sprintf(
				"table %s holds about %d rows; add a LIMIT clause or a date filter to bound the result",
				name, t.RowCount),
		}}
	}
	return nil
}

// SensitiveColumnRule warns when a statement references a column tagged
// sensitive in the schema, so callers can apply their privacy policy.
// Privacy notice, not an error.
type SensitiveColumnRule struct{}

func (r *SensitiveColumnRule) Name() string { return "sensitive_columns" }

func (r *SensitiveColumnRule) Check(stmt *Statement, model *schema.Model) []Finding {
	var findings []Finding
	reported := make(map[string]bool)

	warn := func(table, column string) {
		key := table + "." + column
		if reported[key] {
			return
		}
		reported[key] = true
		findings = append(findings, Finding{
			Kind: FindingWarning,
			Message: fmt.Sprintf(
				"column %s is tagged sensitive; ensure the caller is authorized to read it", key),
		})
	}

	for _, ref := range stmt.ColumnRefs {
		if ref.Table == "" {
			continue
		}
		t := model.Table(ref.Table)
		if t == nil {
			continue
		}
		if c := t.Column(ref.Column); c != nil && c.Sensitive {
			warn(ref.Table, ref.Column)
		}
	}

	// Star selects expose every column of every referenced table.
	if selectsStar(stmt.Normalized) {
		for _, name := range stmt.TableNames() {
			t := model.Table(name)
			if t == nil {
				continue
			}
			for _, c := range t.Columns {
				if c.Sensitive {
					warn(name, c.Name)
				}
			}
		}
	}

	return findings
}
