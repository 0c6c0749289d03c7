package models

// QueryResult holds the rows returned by the execution collaborator.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// RowCount returns the number of data rows.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Query type classifications reported on answer metadata.
const (
	QueryTypeCount       = "count"
	QueryTypeAggregation = "aggregation"
	QueryTypeSorted      = "sorted_data"
	QueryTypeRetrieval   = "data_retrieval"
	QueryTypeSchemaInfo  = "schema_info"
	QueryTypeOther       = "other"
)

// AnswerMetadata describes what an answered question touched.
type AnswerMetadata struct {
	RowsReturned   int      `json:"rows_returned"`
	TablesAccessed []string `json:"tables_accessed"`
	QueryType      string   `json:"query_type"`
}

// Answer is the coordinator's final response for one question.
type Answer struct {
	Question  string         `json:"question"`
	SQL       string         `json:"sql"`
	Plan      *QueryPlan     `json:"plan,omitempty"`
	Verdict   *Verdict       `json:"verdict,omitempty"`
	Result    *QueryResult   `json:"result,omitempty"`
	Formatted string         `json:"formatted_response,omitempty"`
	Metadata  AnswerMetadata `json:"metadata"`
}
