// Package planner turns a question and a candidate-table hint into a
// complete, immutable query plan: resolved tables, join path, and a bounded
// textual schema context for the generation collaborator.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/klinika-ai/klinika-engine/pkg/graph"
	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// DefaultMaxContextChars bounds the rendered context. Generation quality
// degrades sharply past a few thousand characters, so truncation must be
// predictable, not arbitrary.
const DefaultMaxContextChars = 4000

// DefaultMaxColumnsPerTable bounds how many columns one table contributes
// before the non-key remainder is cut.
const DefaultMaxColumnsPerTable = 12

// joinPathHeader precedes the rendered join path lines in the context.
const joinPathHeader = "Join path:"

// ContextBuilder renders the schema subset a plan needs, under a hard
// character budget. It never fails: when even a keys-only rendering of a
// single table exceeds the budget, that minimal rendering is returned
// over budget rather than truncated mid-line.
type ContextBuilder struct {
	graph      *graph.Graph
	maxColumns int
}

// NewContextBuilder creates a builder. The graph supplies table centrality
// for the ordered-drop policy.
func NewContextBuilder(g *graph.Graph, maxColumns int) *ContextBuilder {
	if maxColumns <= 0 {
		maxColumns = DefaultMaxColumnsPerTable
	}
	return &ContextBuilder{graph: g, maxColumns: maxColumns}
}

// tableRendering tracks which optional parts of one table survive the
// budget passes.
type tableRendering struct {
	table       *models.Table
	withSamples bool
	keysOnly    bool
	minimal     bool
}

// Build renders the context for the given tables and join path within
// maxChars. Drop order when over budget: sample-row previews first, then
// non-key columns of the least-central tables, then everything except
// names and key columns.
func (b *ContextBuilder) Build(tables []*models.Table, joinPath models.JoinPath, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	renderings := make([]*tableRendering, 0, len(tables))
	for _, t := range tables {
		renderings = append(renderings, &tableRendering{table: t, withSamples: len(t.SampleRows) > 0})
	}

	out := b.render(renderings, joinPath)
	if len(out) <= maxChars {
		return out
	}

	// Pass 1: drop sample previews.
	for _, r := range renderings {
		r.withSamples = false
	}
	out = b.render(renderings, joinPath)
	if len(out) <= maxChars {
		return out
	}

	// Pass 2: drop non-key columns, least-central tables first.
	for _, r := range b.byCentrality(renderings) {
		r.keysOnly = true
		out = b.render(renderings, joinPath)
		if len(out) <= maxChars {
			return out
		}
	}

	// Pass 3: minimal rendering, kept even if still over budget.
	for _, r := range renderings {
		r.minimal = true
	}
	return b.render(renderings, joinPath)
}

// byCentrality orders renderings by ascending relationship degree, ties
// broken lexically, so peripheral tables lose detail before central ones.
func (b *ContextBuilder) byCentrality(renderings []*tableRendering) []*tableRendering {
	ordered := append([]*tableRendering{}, renderings...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := b.graph.Degree(ordered[i].table.Name), b.graph.Degree(ordered[j].table.Name)
		if di != dj {
			return di < dj
		}
		return ordered[i].table.Name < ordered[j].table.Name
	})
	return ordered
}

func (b *ContextBuilder) render(renderings []*tableRendering, joinPath models.JoinPath) string {
	var sb strings.Builder

	sb.WriteString("Tables:\n")
	for _, r := range renderings {
		b.renderTable(&sb, r)
	}

	if len(joinPath) > 0 {
		sb.WriteString(joinPathHeader)
		sb.WriteByte('\n')
		sb.WriteString(joinPath.Render())
		sb.WriteByte('\n')
	}

	return strings.TrimRight(sb.String(), "\n")
}

func (b *ContextBuilder) renderTable(sb *strings.Builder, r *tableRendering) {
	t := r.table

	if r.minimal {
		sb.WriteString("### " + t.Name + "\n")
		for _, c := range t.KeyColumns() {
			sb.WriteString(columnLine(&c))
		}
		sb.WriteByte('\n')
		return
	}

	header := "### " + t.Name
	if t.Category != "" {
		header += " (category: " + t.Category + ")"
	}
	sb.WriteString(header + "\n")
	if t.Role != "" {
		sb.WriteString("Role: " + t.Role + "\n")
	}

	for _, c := range b.selectColumns(t, r.keysOnly) {
		sb.WriteString(columnLine(&c))
	}

	if r.withSamples && len(t.SampleRows) > 0 {
		sb.WriteString("Sample row: " + renderSampleRow(t.SampleRows[0]) + "\n")
	}
	sb.WriteByte('\n')
}

// selectColumns keeps key columns always and fills the remainder of the
// per-table bound with non-key columns in declared order.
func (b *ContextBuilder) selectColumns(t *models.Table, keysOnly bool) []models.Column {
	var selected []models.Column
	for _, c := range t.Columns {
		if c.IsKey() {
			selected = append(selected, c)
		}
	}
	if keysOnly {
		return selected
	}
	for _, c := range t.Columns {
		if len(selected) >= b.maxColumns {
			break
		}
		if !c.IsKey() {
			selected = append(selected, c)
		}
	}
	return selected
}

func columnLine(c *models.Column) string {
	var attrs []string
	if c.PrimaryKey {
		attrs = append(attrs, "primary key")
	}
	if c.Nullable {
		attrs = append(attrs, "nullable")
	}
	if c.Sensitive {
		attrs = append(attrs, "sensitive")
	}

	line := "  - " + c.Name
	if c.DataType != "" {
		line += " " + c.DataType
	}
	if len(attrs) > 0 {
		line += " (" + strings.Join(attrs, ", ") + ")"
	}
	if c.References != nil {
		line += " -> " + c.References.Table + "." + c.References.Column
	}
	return line + "\n"
}

// renderSampleRow renders one preview row with sorted keys for stable
// output.
func renderSampleRow(row map[string]any) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, row[k])
	}
	return strings.Join(parts, ", ")
}
