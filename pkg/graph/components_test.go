package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestComponents(t *testing.T) {
	g := clinicGraph(t)

	components, islands := g.Components()
	require.Len(t, components, 2)

	assert.Equal(t, []string{"diagnosis", "doctor", "patient", "prescription", "visit"}, components[0].Tables)
	assert.Equal(t, 5, components[0].Size)
	assert.Equal(t, []string{"billing", "payment"}, components[1].Tables)

	assert.Equal(t, []string{"audit_log"}, islands)
}

func TestSameComponent(t *testing.T) {
	g := clinicGraph(t)

	assert.True(t, g.SameComponent("patient", "diagnosis"))
	assert.True(t, g.SameComponent("billing", "payment"))
	assert.True(t, g.SameComponent("audit_log", "audit_log"))
	assert.False(t, g.SameComponent("patient", "billing"))
	assert.False(t, g.SameComponent("patient", "audit_log"))
	assert.False(t, g.SameComponent("patient", "unknown"))
}

func TestLogConnectivity(t *testing.T) {
	g := clinicGraph(t)

	// Smoke test: must not panic with a real logger attached.
	g.LogConnectivity(zaptest.NewLogger(t))
}
