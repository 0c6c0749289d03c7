// Package graph builds the undirected weighted relationship graph over the
// schema model and answers join-path and neighborhood queries on it.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// Source is the slice of the schema model the graph is built from.
// *schema.Model satisfies it.
type Source interface {
	Tables() []models.Table
	Relationships() []models.Relationship
}

// Graph is the full relationship graph: every table is a node, every
// declared foreign-key edge a bidirectional weighted edge. It is built once
// per snapshot and never mutated afterwards, so reads need no locking; only
// the multi-table path memo carries a mutex.
type Graph struct {
	nodes  []string
	index  map[string]int
	edges  []models.Relationship
	adj    map[string][]int // table -> indices into edges
	degree map[string]int

	// hubPenalty scales how strongly equal-length path comparison punishes
	// routing through highly connected intermediate tables.
	hubPenalty float64

	mu       sync.RWMutex
	pathMemo map[string]models.JoinPath
	memoMiss map[string]bool // memoized disconnected results
}

// Option configures graph construction.
type Option func(*Graph)

// WithHubPenalty overrides the default tie-break weighting applied per unit
// of intermediate-node degree when comparing equal-cost paths.
func WithHubPenalty(penalty float64) Option {
	return func(g *Graph) {
		if penalty > 0 {
			g.hubPenalty = penalty
		}
	}
}

// Build constructs the graph from a schema source. Every edge endpoint must
// exist as a node; a dangling reference is a load-time error, never a
// runtime one.
func Build(src Source, opts ...Option) (*Graph, error) {
	tables := src.Tables()
	g := &Graph{
		nodes:      make([]string, 0, len(tables)),
		index:      make(map[string]int, len(tables)),
		adj:        make(map[string][]int),
		degree:     make(map[string]int),
		hubPenalty: 1.0,
		pathMemo:   make(map[string]models.JoinPath),
		memoMiss:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, t := range tables {
		if _, dup := g.index[t.Name]; dup {
			return nil, &apperrors.SchemaLoadError{
				Reason: apperrors.SchemaReasonDuplicateTable,
				Detail: t.Name,
			}
		}
		g.index[t.Name] = len(g.nodes)
		g.nodes = append(g.nodes, t.Name)
	}

	for _, edge := range src.Relationships() {
		for _, end := range []string{edge.SourceTable, edge.TargetTable} {
			if _, ok := g.index[end]; !ok {
				return nil, &apperrors.SchemaLoadError{
					Reason: apperrors.SchemaReasonUnknownTable,
					Detail: fmt.Sprintf("%s (edge %s)", end, edge.String()),
				}
			}
		}
		idx := len(g.edges)
		g.edges = append(g.edges, edge)
		g.adj[edge.SourceTable] = append(g.adj[edge.SourceTable], idx)
		g.degree[edge.SourceTable]++
		if edge.TargetTable != edge.SourceTable {
			g.adj[edge.TargetTable] = append(g.adj[edge.TargetTable], idx)
			g.degree[edge.TargetTable]++
		}
	}

	return g, nil
}

// Tables returns every node name in schema declaration order.
func (g *Graph) Tables() []string { return g.nodes }

// Edges returns every edge in declaration order.
func (g *Graph) Edges() []models.Relationship { return g.edges }

// HasTable reports whether the named table is a node.
func (g *Graph) HasTable(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Degree returns the number of edges touching the named table.
func (g *Graph) Degree(table string) int { return g.degree[table] }

// HubTables returns up to topN table names ranked by descending relationship
// degree, ties broken lexically. Central business tables (a patient master,
// a visit table) surface here without any hardcoded names, so the ranking
// survives schema reloads.
func (g *Graph) HubTables(topN int) []string {
	ranked := make([]string, len(g.nodes))
	copy(ranked, g.nodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := g.degree[ranked[i]], g.degree[ranked[j]]
		if di != dj {
			return di > dj
		}
		return ranked[i] < ranked[j]
	})
	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// RelatedTables returns the tables reachable from the named table within
// maxHops edges, sorted lexically. maxHops < 1 defaults to immediate
// neighbors only.
func (g *Graph) RelatedTables(table string, maxHops int) []string {
	if _, ok := g.index[table]; !ok {
		return nil
	}
	if maxHops < 1 {
		maxHops = 1
	}

	visited := map[string]bool{table: true}
	frontier := []string{table}
	var related []string

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, current := range frontier {
			for _, ei := range g.adj[current] {
				neighbor := g.edges[ei].Other(current)
				if neighbor == "" || visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				related = append(related, neighbor)
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	sort.Strings(related)
	return related
}
