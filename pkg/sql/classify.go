package sql

import (
	"regexp"

	"github.com/klinika-ai/klinika-engine/pkg/models"
)

var (
	countPattern     = regexp.MustCompile(`(?i)\bCOUNT\s*\(`)
	aggregatePattern = regexp.MustCompile(`(?i)\b(?:SUM|AVG|MIN|MAX|GROUP\s+BY)\b`)
	orderByPattern   = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
)

// Classify reports the broad query type of a statement, used for answer
// metadata. Counts win over other aggregations; schema inspection verbs
// win over everything.
func Classify(stmt *Statement) string {
	switch stmt.LeadingKeyword() {
	case "SHOW", "DESCRIBE", "DESC", "EXPLAIN":
		return models.QueryTypeSchemaInfo
	case "SELECT", "WITH":
	default:
		return models.QueryTypeOther
	}

	switch {
	case countPattern.MatchString(stmt.Normalized):
		return models.QueryTypeCount
	case aggregatePattern.MatchString(stmt.Normalized):
		return models.QueryTypeAggregation
	case orderByPattern.MatchString(stmt.Normalized):
		return models.QueryTypeSorted
	default:
		return models.QueryTypeRetrieval
	}
}
