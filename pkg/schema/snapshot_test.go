package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
	"github.com/klinika-ai/klinika-engine/pkg/testhelpers"
)

func TestManagerCurrentBeforePublish(t *testing.T) {
	m := schema.NewManager(zaptest.NewLogger(t))

	_, err := m.Current()
	assert.ErrorIs(t, err, apperrors.ErrSchemaNotLoaded)
}

func TestManagerPublish(t *testing.T) {
	m := schema.NewManager(zaptest.NewLogger(t))

	snap, err := m.Publish(testhelpers.ClinicModel(t))
	require.NoError(t, err)
	require.NotNil(t, snap.Graph)

	current, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, snap, current)
	assert.False(t, current.LoadedAt.IsZero())
	assert.GreaterOrEqual(t, current.Age().Nanoseconds(), int64(0))
}

func TestManagerReloadKeepsPreviousOnFailure(t *testing.T) {
	m := schema.NewManager(zaptest.NewLogger(t))

	require.NoError(t, m.Reload(func() (*schema.Model, error) {
		return testhelpers.ClinicModel(t), nil
	}))
	before, err := m.Current()
	require.NoError(t, err)

	loadErr := errors.New("source unavailable")
	require.ErrorIs(t, m.Reload(func() (*schema.Model, error) {
		return nil, loadErr
	}), loadErr)

	after, err := m.Current()
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestManagerReloadSwapsSnapshot(t *testing.T) {
	m := schema.NewManager(zaptest.NewLogger(t))

	require.NoError(t, m.Reload(func() (*schema.Model, error) {
		return testhelpers.ClinicModel(t), nil
	}))
	first, err := m.Current()
	require.NoError(t, err)

	require.NoError(t, m.Reload(func() (*schema.Model, error) {
		return testhelpers.ClinicModel(t), nil
	}))
	second, err := m.Current()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.NotSame(t, first.Graph, second.Graph)
}

func TestManagerReloadReassignedForeignKey(t *testing.T) {
	m := schema.NewManager(zaptest.NewLogger(t))

	_, err := m.Publish(testhelpers.ClinicModel(t))
	require.NoError(t, err)

	before, err := m.Current()
	require.NoError(t, err)
	assert.Nil(t, before.Graph.ShortestJoinPath("payment", "patient"))

	// Repoint payment from billing onto the visit hub and reload.
	require.NoError(t, m.Reload(func() (*schema.Model, error) {
		desc := testhelpers.ClinicDescriptor()
		for i, table := range desc.Tables {
			if table.Name != "payment" {
				continue
			}
			for j, col := range table.Columns {
				if col.Name == "billing_id" {
					desc.Tables[i].Columns[j] = models.Column{
						Name:       "visit_id",
						DataType:   "int",
						References: &models.ForeignKeyRef{Table: "visit", Column: "visit_id"},
					}
				}
			}
		}
		return schema.NewModel(desc)
	}))

	after, err := m.Current()
	require.NoError(t, err)

	path := after.Graph.ShortestJoinPath("payment", "patient")
	require.NotNil(t, path)
	assert.Equal(t, []string{"payment", "visit", "patient"}, path.Tables())
}
