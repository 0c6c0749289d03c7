package graph

import (
	"fmt"
	"sort"

	basic "github.com/yourbasic/graph"
	"go.uber.org/zap"
)

// Component is a group of tables connected by relationships.
type Component struct {
	Tables []string
	Size   int
}

// Components returns the connected components of the graph, largest first,
// plus the island tables that have no relationships at all. Tables inside a
// component are sorted lexically.
func (g *Graph) Components() ([]Component, []string) {
	bg := basic.New(len(g.nodes))
	for _, edge := range g.edges {
		si, ti := g.index[edge.SourceTable], g.index[edge.TargetTable]
		if si != ti {
			bg.AddBoth(si, ti)
		}
	}

	var components []Component
	var islands []string

	for _, comp := range basic.Components(bg) {
		if len(comp) == 1 {
			islands = append(islands, g.nodes[comp[0]])
			continue
		}
		tables := make([]string, len(comp))
		for i, v := range comp {
			tables[i] = g.nodes[v]
		}
		sort.Strings(tables)
		components = append(components, Component{Tables: tables, Size: len(tables)})
	}

	sort.SliceStable(components, func(i, j int) bool {
		if components[i].Size != components[j].Size {
			return components[i].Size > components[j].Size
		}
		return components[i].Tables[0] < components[j].Tables[0]
	})
	sort.Strings(islands)

	return components, islands
}

// SameComponent reports whether two tables share a relationship path.
func (g *Graph) SameComponent(a, b string) bool {
	if !g.HasTable(a) || !g.HasTable(b) {
		return false
	}
	if a == b {
		return true
	}
	return g.ShortestJoinPath(a, b) != nil
}

// LogConnectivity logs a human-readable connectivity report for a freshly
// built graph: edge count, each component with a short table preview, and
// island tables that no join path can reach.
func (g *Graph) LogConnectivity(logger *zap.Logger) {
	components, islands := g.Components()

	logger.Info("relationship graph built",
		zap.Int("tables", len(g.nodes)),
		zap.Int("relationships", len(g.edges)),
		zap.Int("components", len(components)),
		zap.Int("islands", len(islands)))

	for i, comp := range components {
		preview := comp.Tables
		suffix := ""
		if len(preview) > 5 {
			suffix = fmt.Sprintf(", ... (%d more)", len(preview)-5)
			preview = preview[:5]
		}
		logger.Info(fmt.Sprintf("component %d (%d tables): %v%s",
			i+1, comp.Size, preview, suffix))
	}

	if len(islands) > 0 {
		preview := islands
		suffix := ""
		if len(preview) > 5 {
			suffix = fmt.Sprintf(", ... (%d more)", len(preview)-5)
			preview = preview[:5]
		}
		logger.Warn(fmt.Sprintf("island tables (%d): %v%s (no join path reaches these)",
			len(islands), preview, suffix))
	}
}
