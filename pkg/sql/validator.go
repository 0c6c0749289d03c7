package sql

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
)

var starSelectPattern = regexp.MustCompile(`(?i)SELECT\s+(?:\w+\s*\.\s*)?\*`)

func selectsStar(sql string) bool {
	return starSelectPattern.MatchString(sql)
}

// Validator runs the layered validation pipeline over one SQL candidate.
// Layers are independent and all run; validation accumulates every finding
// instead of stopping at the first failure, so a caller gets full feedback
// in one pass. Identical (sql, schema) input always yields an identical
// verdict.
type Validator struct {
	rules  []DomainRule
	logger *zap.Logger
}

// NewValidator creates a validator with the given domain rules.
func NewValidator(rules []DomainRule, logger *zap.Logger) *Validator {
	return &Validator{rules: rules, logger: logger.Named("validator")}
}

// Validate checks a SQL candidate against the schema model.
//
// Layer 1 (statement shape) and layer 2 (reference existence) decide
// validity; the reason code reports the first failed layer. Domain rules,
// JOIN sanity, and the injection scan only ever add warnings and
// suggestions.
func (v *Validator) Validate(sqlText string, model *schema.Model) models.Verdict {
	verdict := models.Verdict{Valid: true}
	stmt := ParseStatement(sqlText)

	if reason, msg := v.checkStatementShape(stmt); reason != "" {
		verdict.Valid = false
		verdict.Reason = reason
		verdict.Message = msg
	}

	if msg := v.checkReferences(stmt, model); msg != "" {
		if verdict.Valid {
			verdict.Reason = models.ReasonUnknownReference
			verdict.Message = msg
		}
		verdict.Valid = false
	}

	for _, rule := range v.rules {
		for _, finding := range rule.Check(stmt, model) {
			switch finding.Kind {
			case FindingSuggestion:
				verdict.Suggestions = append(verdict.Suggestions, finding.Message)
			default:
				verdict.Warnings = append(verdict.Warnings, finding.Message)
			}
		}
	}

	verdict.Warnings = append(verdict.Warnings, v.checkJoinSanity(stmt, model)...)
	verdict.Warnings = append(verdict.Warnings, checkInjection(stmt)...)

	v.logger.Debug("sql validated",
		zap.Bool("valid", verdict.Valid),
		zap.String("reason", verdict.Reason),
		zap.Int("warnings", len(verdict.Warnings)),
		zap.Int("suggestions", len(verdict.Suggestions)))
	return verdict
}

// checkStatementShape enforces a single read-oriented statement.
func (v *Validator) checkStatementShape(stmt *Statement) (reason, message string) {
	if stmt.Normalized == "" {
		return models.ReasonDisallowedStatement, "empty statement"
	}
	if hasSemicolonOutsideStrings(stmt.Normalized) {
		return models.ReasonDisallowedStatement, "multiple SQL statements are not allowed"
	}
	if !stmt.IsReadStatement() {
		return models.ReasonDisallowedStatement, fmt.Sprintf(
			"statement must start with one of %s, got %q",
			strings.Join(readVerbs, "/"), stmt.LeadingKeyword())
	}
	return "", ""
}

// checkReferences verifies every referenced table exists and every
// qualified column belongs to its stated table. Returns a message naming
// the first offending identifier, or "" when all references resolve.
func (v *Validator) checkReferences(stmt *Statement, model *schema.Model) string {
	for _, ref := range stmt.Tables {
		if model.Table(ref.Name) == nil {
			return fmt.Sprintf("unknown table %q", ref.Name)
		}
	}
	for _, ref := range stmt.ColumnRefs {
		table := ref.Table
		if table == "" {
			// Qualifier is neither a FROM/JOIN alias nor one of their
			// tables; accept it only if it names a schema table.
			if model.Table(ref.Qualifier) == nil {
				return fmt.Sprintf("unknown table or alias %q in reference %s.%s",
					ref.Qualifier, ref.Qualifier, ref.Column)
			}
			table = ref.Qualifier
		}
		t := model.Table(table)
		if t == nil {
			return fmt.Sprintf("unknown table %q", table)
		}
		if t.Column(ref.Column) == nil {
			return fmt.Sprintf("table %q has no column %q", table, ref.Column)
		}
	}
	return ""
}

// checkJoinSanity warns about JOIN conditions that match no declared
// relationship. Ad-hoc joins on unmodeled relationships are legal SQL,
// just unverified, so this never fails the verdict.
func (v *Validator) checkJoinSanity(stmt *Statement, model *schema.Model) []string {
	var warnings []string
	for _, join := range stmt.Joins {
		if joinMatchesRelationship(join, model) {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"join condition %s matches no declared relationship; the join is unverified", join.Raw))
	}
	return warnings
}

func joinMatchesRelationship(join JoinCondition, model *schema.Model) bool {
	for _, edge := range model.RelationshipsFor(join.LeftTable) {
		forward := edge.SourceTable == join.LeftTable && edge.SourceColumn == join.LeftColumn &&
			edge.TargetTable == join.RightTable && edge.TargetColumn == join.RightColumn
		reverse := edge.SourceTable == join.RightTable && edge.SourceColumn == join.RightColumn &&
			edge.TargetTable == join.LeftTable && edge.TargetColumn == join.LeftColumn
		if forward || reverse {
			return true
		}
	}

	// A primary-key to foreign-key pair is sound even without a declared
	// edge between exactly these columns.
	left, right := model.Table(join.LeftTable), model.Table(join.RightTable)
	if left == nil || right == nil {
		return false
	}
	lc, rc := left.Column(join.LeftColumn), right.Column(join.RightColumn)
	if lc == nil || rc == nil {
		return false
	}
	if lc.PrimaryKey && rc.References != nil &&
		rc.References.Table == join.LeftTable && rc.References.Column == join.LeftColumn {
		return true
	}
	if rc.PrimaryKey && lc.References != nil &&
		lc.References.Table == join.RightTable && lc.References.Column == join.RightColumn {
		return true
	}
	return false
}
