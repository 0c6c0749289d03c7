package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/graph"
	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/testhelpers"
)

type literalSource struct {
	tables []models.Table
	edges  []models.Relationship
}

func (s *literalSource) Tables() []models.Table               { return s.tables }
func (s *literalSource) Relationships() []models.Relationship { return s.edges }

func clinicGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Build(testhelpers.ClinicModel(t))
	require.NoError(t, err)
	return g
}

func TestBuildRejectsDuplicateTable(t *testing.T) {
	src := &literalSource{
		tables: []models.Table{{Name: "patient"}, {Name: "patient"}},
	}

	_, err := graph.Build(src)
	require.Error(t, err)
	var loadErr *apperrors.SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, apperrors.SchemaReasonDuplicateTable, loadErr.Reason)
}

func TestBuildRejectsDanglingEdge(t *testing.T) {
	src := &literalSource{
		tables: []models.Table{{Name: "visit"}},
		edges: []models.Relationship{
			{SourceTable: "visit", SourceColumn: "patient_id", TargetTable: "patient", TargetColumn: "patient_id"},
		},
	}

	_, err := graph.Build(src)
	require.Error(t, err)
	var loadErr *apperrors.SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, apperrors.SchemaReasonUnknownTable, loadErr.Reason)
}

func TestDegree(t *testing.T) {
	g := clinicGraph(t)

	assert.Equal(t, 4, g.Degree("visit"))
	assert.Equal(t, 1, g.Degree("patient"))
	assert.Equal(t, 1, g.Degree("billing"))
	assert.Equal(t, 0, g.Degree("audit_log"))
	assert.Equal(t, 0, g.Degree("no_such_table"))
}

func TestHubTables(t *testing.T) {
	g := clinicGraph(t)

	assert.Equal(t, []string{"visit"}, g.HubTables(1))

	// Ties among degree-1 tables break lexically.
	assert.Equal(t, []string{"visit", "billing"}, g.HubTables(2))
}

func TestRelatedTables(t *testing.T) {
	g := clinicGraph(t)

	tests := []struct {
		name    string
		table   string
		maxHops int
		want    []string
	}{
		{name: "one hop from patient", table: "patient", maxHops: 1, want: []string{"visit"}},
		{name: "two hops from patient", table: "patient", maxHops: 2,
			want: []string{"diagnosis", "doctor", "prescription", "visit"}},
		{name: "zero hops defaults to one", table: "patient", maxHops: 0, want: []string{"visit"}},
		{name: "detached pair", table: "billing", maxHops: 3, want: []string{"payment"}},
		{name: "isolated table", table: "audit_log", maxHops: 2, want: nil},
		{name: "unknown table", table: "nope", maxHops: 1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.RelatedTables(tt.table, tt.maxHops))
		})
	}
}

func TestHasTable(t *testing.T) {
	g := clinicGraph(t)

	assert.True(t, g.HasTable("patient"))
	assert.False(t, g.HasTable("invoice"))
}
