package graph

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// pathLabel is one candidate path during search. Labels are ordered by total
// weight first, then by the hub score (summed degree of intermediate tables,
// scaled by the configured penalty), then by the lexical order of the table
// sequence. The hub score keeps equal-length paths from always routing
// through a few mega-hub tables; the lexical order makes results
// deterministic.
type pathLabel struct {
	table string
	dist  float64
	hub   float64
	seq   []string
	edges []int
}

func (a *pathLabel) less(b *pathLabel) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	if a.hub != b.hub {
		return a.hub < b.hub
	}
	return lessSeq(a.seq, b.seq)
}

func lessSeq(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

type labelHeap []*pathLabel

func (h labelHeap) Len() int           { return len(h) }
func (h labelHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h labelHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *labelHeap) Push(x any)        { *h = append(*h, x.(*pathLabel)) }
func (h *labelHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ShortestJoinPath returns the optimal join path between two tables, or nil
// when no relationship path connects them. Edge weights come from declared
// relationship strength; with uniform default weights this is plain BFS.
// Path length is symmetric between the two directions.
func (g *Graph) ShortestJoinPath(from, to string) models.JoinPath {
	if !g.HasTable(from) || !g.HasTable(to) {
		return nil
	}
	if from == to {
		return models.JoinPath{}
	}

	h := &labelHeap{{table: from, seq: []string{from}}}
	heap.Init(h)
	settled := make(map[string]bool)

	for h.Len() > 0 {
		label := heap.Pop(h).(*pathLabel)
		if settled[label.table] {
			continue
		}
		if label.table == to {
			return g.materialize(label.edges)
		}
		settled[label.table] = true

		// Extending past label.table turns it into an intermediate node,
		// so its degree joins the hub score (the start table stays free).
		hubStep := 0.0
		if label.table != from {
			hubStep = g.hubPenalty * float64(g.degree[label.table])
		}

		for _, ei := range g.adj[label.table] {
			neighbor := g.edges[ei].Other(label.table)
			if neighbor == "" || settled[neighbor] {
				continue
			}
			next := &pathLabel{
				table: neighbor,
				dist:  label.dist + g.edges[ei].EffectiveWeight(),
				hub:   label.hub + hubStep,
				seq:   append(append([]string{}, label.seq...), neighbor),
				edges: append(append([]int{}, label.edges...), ei),
			}
			heap.Push(h, next)
		}
	}

	return nil
}

func (g *Graph) materialize(edgeIdx []int) models.JoinPath {
	path := make(models.JoinPath, len(edgeIdx))
	for i, ei := range edgeIdx {
		path[i] = g.edges[ei]
	}
	return path
}

// MultiTablePath connects all requested tables into one Steiner-tree-like
// join path: starting from the best-connected table in the set, it
// repeatedly merges the shortest path to the closest still-unconnected
// table. Intermediate tables pulled in by a path become connectors.
//
// The second return is false when some subset of the requested tables has no
// relationship path to the rest. That is not an error: callers treat the
// disconnected subset as separate, un-joined tables.
//
// Results are memoized per sorted table set; the memo lives and dies with
// the graph, which is rebuilt on every schema reload.
func (g *Graph) MultiTablePath(tables []string) (models.JoinPath, bool) {
	requested := dedupe(tables)
	for _, t := range requested {
		if !g.HasTable(t) {
			return nil, false
		}
	}
	if len(requested) <= 1 {
		return models.JoinPath{}, true
	}

	key := memoKey(requested)
	g.mu.RLock()
	if miss := g.memoMiss[key]; miss {
		g.mu.RUnlock()
		return nil, false
	}
	if memo, ok := g.pathMemo[key]; ok {
		g.mu.RUnlock()
		return append(models.JoinPath{}, memo...), true
	}
	g.mu.RUnlock()

	path, ok := g.multiTablePath(requested)

	g.mu.Lock()
	if ok {
		g.pathMemo[key] = path
	} else {
		g.memoMiss[key] = true
	}
	g.mu.Unlock()

	if !ok {
		return nil, false
	}
	return append(models.JoinPath{}, path...), true
}

func (g *Graph) multiTablePath(requested []string) (models.JoinPath, bool) {
	start := g.bestAnchor(requested)

	connected := map[string]bool{start: true}
	covered := map[string]bool{start: true}
	seenEdges := make(map[string]bool)
	var merged models.JoinPath

	for len(covered) < len(requested) {
		var best models.JoinPath
		bestTarget := ""

		for _, target := range requested {
			if covered[target] {
				continue
			}
			candidate := g.closestPath(connected, target)
			if candidate == nil {
				continue
			}
			if best == nil || pathLess(candidate, best) {
				best = candidate
				bestTarget = target
			}
		}

		if best == nil {
			return nil, false
		}

		for _, edge := range best {
			if key := edge.String(); !seenEdges[key] {
				seenEdges[key] = true
				merged = append(merged, edge)
			}
			connected[edge.SourceTable] = true
			connected[edge.TargetTable] = true
		}
		covered[bestTarget] = true
		for _, t := range requested {
			if connected[t] {
				covered[t] = true
			}
		}
	}

	return merged, true
}

// bestAnchor picks the starting table for the greedy merge: the requested
// table with the highest degree, ties broken lexically. This generalizes the
// "start from the central visit/patient table" behavior without naming any
// table.
func (g *Graph) bestAnchor(requested []string) string {
	anchor := requested[0]
	for _, t := range requested[1:] {
		if g.degree[t] > g.degree[anchor] ||
			(g.degree[t] == g.degree[anchor] && t < anchor) {
			anchor = t
		}
	}
	return anchor
}

// closestPath returns the best path from any connected table to target.
func (g *Graph) closestPath(connected map[string]bool, target string) models.JoinPath {
	var best models.JoinPath
	froms := make([]string, 0, len(connected))
	for t := range connected {
		froms = append(froms, t)
	}
	sort.Strings(froms)

	for _, from := range froms {
		candidate := g.ShortestJoinPath(from, target)
		if candidate == nil {
			continue
		}
		if best == nil || pathLess(candidate, best) {
			best = candidate
		}
	}
	return best
}

// pathLess orders candidate paths by edge count, then by rendered form for
// determinism.
func pathLess(a, b models.JoinPath) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a.Render() < b.Render()
}

func dedupe(tables []string) []string {
	seen := make(map[string]bool, len(tables))
	var out []string
	for _, t := range tables {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func memoKey(tables []string) string {
	sorted := append([]string{}, tables...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}
