package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinika-ai/klinika-engine/pkg/graph"
	"github.com/klinika-ai/klinika-engine/pkg/models"
)

func TestShortestJoinPathDirect(t *testing.T) {
	g := clinicGraph(t)

	path := g.ShortestJoinPath("visit", "patient")
	require.Len(t, path, 1)
	assert.Equal(t, "visit.patient_id -> patient.patient_id", path.Render())
}

func TestShortestJoinPathTwoHops(t *testing.T) {
	g := clinicGraph(t)

	path := g.ShortestJoinPath("patient", "diagnosis")
	require.Len(t, path, 2)
	assert.ElementsMatch(t, []string{"patient", "visit", "diagnosis"}, path.Tables())
}

func TestShortestJoinPathSymmetry(t *testing.T) {
	g := clinicGraph(t)

	forward := g.ShortestJoinPath("patient", "diagnosis")
	backward := g.ShortestJoinPath("diagnosis", "patient")
	require.NotNil(t, forward)
	require.NotNil(t, backward)
	assert.Equal(t, len(forward), len(backward))
	assert.ElementsMatch(t, forward.Tables(), backward.Tables())
}

func TestShortestJoinPathSameTable(t *testing.T) {
	g := clinicGraph(t)

	path := g.ShortestJoinPath("patient", "patient")
	require.NotNil(t, path)
	assert.Empty(t, path)
}

func TestShortestJoinPathDisconnected(t *testing.T) {
	g := clinicGraph(t)

	assert.Nil(t, g.ShortestJoinPath("patient", "billing"))
	assert.Nil(t, g.ShortestJoinPath("patient", "audit_log"))
	assert.Nil(t, g.ShortestJoinPath("patient", "no_such_table"))
}

func TestShortestJoinPathRespectsWeights(t *testing.T) {
	// a-b-c via two light edges should beat the single heavy a-c edge.
	src := &literalSource{
		tables: []models.Table{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		edges: []models.Relationship{
			{SourceTable: "a", SourceColumn: "x", TargetTable: "c", TargetColumn: "x", Weight: 5},
			{SourceTable: "a", SourceColumn: "x", TargetTable: "b", TargetColumn: "x", Weight: 1},
			{SourceTable: "b", SourceColumn: "y", TargetTable: "c", TargetColumn: "y", Weight: 1},
		},
	}
	g, err := graph.Build(src)
	require.NoError(t, err)

	path := g.ShortestJoinPath("a", "c")
	require.Len(t, path, 2)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, path.Tables())
}

func TestShortestJoinPathAvoidsHubsOnTies(t *testing.T) {
	// Two equal-length routes from a to d: through hub (degree 5) and
	// through quiet (degree 2). The hub penalty should pick quiet.
	tables := []models.Table{
		{Name: "a"}, {Name: "d"}, {Name: "hub"}, {Name: "quiet"},
		{Name: "s1"}, {Name: "s2"}, {Name: "s3"},
	}
	edges := []models.Relationship{
		{SourceTable: "a", SourceColumn: "k", TargetTable: "hub", TargetColumn: "k"},
		{SourceTable: "hub", SourceColumn: "k", TargetTable: "d", TargetColumn: "k"},
		{SourceTable: "a", SourceColumn: "k", TargetTable: "quiet", TargetColumn: "k"},
		{SourceTable: "quiet", SourceColumn: "k", TargetTable: "d", TargetColumn: "k"},
		{SourceTable: "hub", SourceColumn: "k", TargetTable: "s1", TargetColumn: "k"},
		{SourceTable: "hub", SourceColumn: "k", TargetTable: "s2", TargetColumn: "k"},
		{SourceTable: "hub", SourceColumn: "k", TargetTable: "s3", TargetColumn: "k"},
	}
	g, err := graph.Build(&literalSource{tables: tables, edges: edges})
	require.NoError(t, err)

	path := g.ShortestJoinPath("a", "d")
	require.Len(t, path, 2)
	assert.Contains(t, path.Tables(), "quiet")
	assert.NotContains(t, path.Tables(), "hub")
}

func TestMultiTablePathPullsInConnector(t *testing.T) {
	g := clinicGraph(t)

	path, connected := g.MultiTablePath([]string{"patient", "diagnosis", "doctor"})
	require.True(t, connected)
	assert.Contains(t, path.Tables(), "visit")

	// Every requested table appears in the merged path.
	for _, want := range []string{"patient", "diagnosis", "doctor"} {
		assert.Contains(t, path.Tables(), want)
	}
}

func TestMultiTablePathSingleAndEmpty(t *testing.T) {
	g := clinicGraph(t)

	path, connected := g.MultiTablePath([]string{"patient"})
	require.True(t, connected)
	assert.Empty(t, path)

	path, connected = g.MultiTablePath(nil)
	require.True(t, connected)
	assert.Empty(t, path)
}

func TestMultiTablePathDisconnected(t *testing.T) {
	g := clinicGraph(t)

	path, connected := g.MultiTablePath([]string{"patient", "billing"})
	assert.False(t, connected)
	assert.Nil(t, path)

	path, connected = g.MultiTablePath([]string{"patient", "unknown"})
	assert.False(t, connected)
	assert.Nil(t, path)
}

func TestMultiTablePathDeterministic(t *testing.T) {
	g := clinicGraph(t)

	first, ok := g.MultiTablePath([]string{"diagnosis", "patient", "prescription"})
	require.True(t, ok)

	// Input order must not matter, and repeated calls (now memoized) must
	// render identically.
	second, ok := g.MultiTablePath([]string{"prescription", "diagnosis", "patient"})
	require.True(t, ok)
	assert.Equal(t, first.Render(), second.Render())

	third, ok := g.MultiTablePath([]string{"diagnosis", "patient", "prescription"})
	require.True(t, ok)
	assert.Equal(t, first.Render(), third.Render())
}

func TestMultiTablePathMemoReturnsCopies(t *testing.T) {
	g := clinicGraph(t)

	first, ok := g.MultiTablePath([]string{"patient", "diagnosis"})
	require.True(t, ok)
	require.NotEmpty(t, first)

	first[0] = models.Relationship{SourceTable: "tampered"}

	second, ok := g.MultiTablePath([]string{"patient", "diagnosis"})
	require.True(t, ok)
	assert.NotEqual(t, "tampered", second[0].SourceTable)
}
