package planner

import (
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/klinika-ai/klinika-engine/pkg/graph"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
)

// DefaultFallbackHubs is how many hub tables anchor the fallback table set
// when no usable hint arrives.
const DefaultFallbackHubs = 2

// stopwords excluded from question keyword matching. The matcher is a
// deliberately simple fallback layer, not the primary intelligence.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"how": true, "many": true, "much": true, "what": true, "which": true,
	"who": true, "show": true, "list": true, "all": true, "are": true,
	"was": true, "were": true, "have": true, "has": true, "per": true,
	"last": true, "this": true, "that": true, "count": true, "number": true,
}

// tableResolver resolves the final table set for one request: validated
// hints when available, otherwise hub anchors plus keyword matches.
type tableResolver struct {
	model        *schema.Model
	graph        *graph.Graph
	fallbackHubs int
}

func newTableResolver(model *schema.Model, g *graph.Graph, fallbackHubs int) *tableResolver {
	if fallbackHubs <= 0 {
		fallbackHubs = DefaultFallbackHubs
	}
	return &tableResolver{model: model, graph: g, fallbackHubs: fallbackHubs}
}

// resolve returns the final table set in deterministic order. An empty
// result means nothing in the schema matched; the planner turns that into
// ErrNoTablesResolved rather than silently picking an arbitrary table.
func (r *tableResolver) resolve(question string, hints []string) []string {
	var resolved []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] && r.model.Table(name) != nil {
			seen[name] = true
			resolved = append(resolved, name)
		}
	}

	for _, hint := range hints {
		add(strings.TrimSpace(hint))
	}
	if len(resolved) > 0 {
		return resolved
	}

	// Fallback: anchor on the graph's hub tables, then add keyword matches
	// against table names, column names, and role descriptions.
	for _, hub := range r.graph.HubTables(r.fallbackHubs) {
		add(hub)
	}
	for _, match := range r.keywordMatches(question) {
		add(match)
	}
	return resolved
}

// keywordMatches finds tables whose name, role description, or column names
// contain a question keyword, case-insensitively. Singular and plural forms
// of each keyword both count, so "patients" still matches a patient table.
func (r *tableResolver) keywordMatches(question string) []string {
	keywords := questionKeywords(question)
	if len(keywords) == 0 {
		return nil
	}

	var matches []string
	for _, t := range r.model.Tables() {
		name := strings.ToLower(t.Name)
		role := strings.ToLower(t.Role)

		matched := false
		for _, kw := range keywords {
			if strings.Contains(name, kw) || (role != "" && strings.Contains(role, kw)) {
				matched = true
				break
			}
			for _, c := range t.Columns {
				if strings.Contains(strings.ToLower(c.Name), kw) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if matched {
			matches = append(matches, t.Name)
		}
	}
	return matches
}

// questionKeywords tokenizes a question into lowercase keywords with both
// singular and plural forms, stopwords and short tokens removed.
func questionKeywords(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	})

	seen := make(map[string]bool)
	var keywords []string
	add := func(kw string) {
		if len(kw) >= 3 && !stopwords[kw] && !seen[kw] {
			seen[kw] = true
			keywords = append(keywords, kw)
		}
	}
	for _, f := range fields {
		add(f)
		add(inflection.Singular(f))
		add(inflection.Plural(f))
	}
	return keywords
}
