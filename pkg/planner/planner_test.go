package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/planner"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
	"github.com/klinika-ai/klinika-engine/pkg/testhelpers"
)

func newPlanner(t *testing.T, cfg planner.Config) *planner.Planner {
	t.Helper()
	m := schema.NewManager(zaptest.NewLogger(t))
	_, err := m.Publish(testhelpers.ClinicModel(t))
	require.NoError(t, err)
	return planner.New(m, cfg, zaptest.NewLogger(t))
}

func TestPlanQueryWithHints(t *testing.T) {
	p := newPlanner(t, planner.Config{})

	plan, err := p.PlanQuery("diagnoses per patient this month", []string{"patient", "diagnosis"})
	require.NoError(t, err)

	assert.Equal(t, []string{"patient", "diagnosis"}, plan.Tables)
	assert.False(t, plan.Disconnected)
	assert.Contains(t, plan.JoinPath.Tables(), "visit")
	assert.NotEmpty(t, plan.Context)
	assert.NotEqual(t, "", plan.ID.String())
	assert.False(t, plan.CreatedAt.IsZero())
}

func TestPlanQueryIgnoresUnknownHints(t *testing.T) {
	p := newPlanner(t, planner.Config{})

	plan, err := p.PlanQuery("how many visits", []string{"no_such_table", "visit"})
	require.NoError(t, err)
	assert.Equal(t, []string{"visit"}, plan.Tables)
}

func TestPlanQueryFallbackWithoutHints(t *testing.T) {
	p := newPlanner(t, planner.Config{FallbackHubs: 1})

	plan, err := p.PlanQuery("which doctors saw the most patients", nil)
	require.NoError(t, err)

	// Hub anchor plus keyword matches.
	assert.Contains(t, plan.Tables, "visit")
	assert.Contains(t, plan.Tables, "doctor")
	assert.Contains(t, plan.Tables, "patient")
}

func TestPlanQueryDisconnectedTables(t *testing.T) {
	p := newPlanner(t, planner.Config{})

	plan, err := p.PlanQuery("unpaid invoices per patient", []string{"patient", "billing"})
	require.NoError(t, err)

	assert.True(t, plan.Disconnected)
	assert.Nil(t, plan.JoinPath)
	assert.NotEmpty(t, plan.Context)
}

func TestPlanQueryWithoutSnapshot(t *testing.T) {
	m := schema.NewManager(zaptest.NewLogger(t))
	p := planner.New(m, planner.Config{}, zaptest.NewLogger(t))

	_, err := p.PlanQuery("anything", nil)
	assert.ErrorIs(t, err, apperrors.ErrSchemaNotLoaded)
}

func TestPlanContextBudgetFlowsFromConfig(t *testing.T) {
	p := newPlanner(t, planner.Config{MaxContextChars: 300})

	plan, err := p.PlanQuery("everything", []string{"patient", "visit", "diagnosis", "doctor", "prescription"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(plan.Context), 300)
}

func TestRelatedTables(t *testing.T) {
	p := newPlanner(t, planner.Config{RelatedMaxHops: 2})

	related, err := p.RelatedTables("patient", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"diagnosis", "doctor", "prescription", "visit"}, related)

	related, err = p.RelatedTables("patient", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"visit"}, related)
}

func TestHubTables(t *testing.T) {
	p := newPlanner(t, planner.Config{})

	hubs, err := p.HubTables(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"visit"}, hubs)
}

func TestSchemaContext(t *testing.T) {
	p := newPlanner(t, planner.Config{})

	ctx, err := p.SchemaContext([]string{"patient", "visit"})
	require.NoError(t, err)
	assert.Contains(t, ctx, "### patient")
	assert.Contains(t, ctx, "Join path:")

	_, err = p.SchemaContext([]string{"nothing_here"})
	assert.ErrorIs(t, err, apperrors.ErrNoTablesResolved)
}
