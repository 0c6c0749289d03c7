package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JoinPath is an ordered, cycle-free sequence of relationships connecting the
// tables of one plan. Empty for single-table plans.
type JoinPath []Relationship

// Render returns one "source.col -> target.col" line per edge.
func (p JoinPath) Render() string {
	if len(p) == 0 {
		return ""
	}
	lines := make([]string, len(p))
	for i, edge := range p {
		lines[i] = edge.String()
	}
	return strings.Join(lines, "\n")
}

// Tables returns every distinct table the path touches, in first-seen order.
func (p JoinPath) Tables() []string {
	seen := make(map[string]bool)
	var tables []string
	for _, edge := range p {
		for _, t := range []string{edge.SourceTable, edge.TargetTable} {
			if !seen[t] {
				seen[t] = true
				tables = append(tables, t)
			}
		}
	}
	return tables
}

// ParseJoinPath parses the Render format back into an edge sequence.
// Round-trips with Render for any path whose identifiers contain no spaces.
func ParseJoinPath(s string) (JoinPath, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var path JoinPath
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		src, dst, ok := strings.Cut(line, " -> ")
		if !ok {
			return nil, fmt.Errorf("malformed join path line %q", line)
		}
		srcTable, srcCol, okSrc := strings.Cut(src, ".")
		dstTable, dstCol, okDst := strings.Cut(dst, ".")
		if !okSrc || !okDst {
			return nil, fmt.Errorf("malformed join path endpoint in %q", line)
		}
		path = append(path, Relationship{
			SourceTable:  srcTable,
			SourceColumn: srcCol,
			TargetTable:  dstTable,
			TargetColumn: dstCol,
		})
	}
	return path, nil
}

// QueryPlan is the planner's complete, immutable output for one request.
// It is consumed by the generation step and then discarded.
type QueryPlan struct {
	ID           uuid.UUID `json:"id"`
	Question     string    `json:"question"`
	Tables       []string  `json:"tables"`
	JoinPath     JoinPath  `json:"join_path,omitempty"`
	Disconnected bool      `json:"disconnected"`
	Context      string    `json:"context"`
	CreatedAt    time.Time `json:"created_at"`
}
