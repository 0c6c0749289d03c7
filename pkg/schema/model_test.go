package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
	"github.com/klinika-ai/klinika-engine/pkg/testhelpers"
)

func TestNewModelValidatesDescriptor(t *testing.T) {
	fk := func(table, column string) *models.ForeignKeyRef {
		return &models.ForeignKeyRef{Table: table, Column: column}
	}

	tests := []struct {
		name   string
		desc   *schema.Descriptor
		reason string
	}{
		{
			name: "unnamed table",
			desc: &schema.Descriptor{Tables: []models.Table{
				{Columns: []models.Column{{Name: "id"}}},
			}},
			reason: apperrors.SchemaReasonMalformed,
		},
		{
			name: "duplicate table",
			desc: &schema.Descriptor{Tables: []models.Table{
				{Name: "patient"}, {Name: "patient"},
			}},
			reason: apperrors.SchemaReasonDuplicateTable,
		},
		{
			name: "fk to unknown table",
			desc: &schema.Descriptor{Tables: []models.Table{
				{Name: "visit", Columns: []models.Column{
					{Name: "patient_id", References: fk("patient", "patient_id")},
				}},
			}},
			reason: apperrors.SchemaReasonUnknownTable,
		},
		{
			name: "fk to unknown column",
			desc: &schema.Descriptor{Tables: []models.Table{
				{Name: "patient", Columns: []models.Column{{Name: "patient_id"}}},
				{Name: "visit", Columns: []models.Column{
					{Name: "patient_id", References: fk("patient", "id")},
				}},
			}},
			reason: apperrors.SchemaReasonUnknownColumn,
		},
		{
			name: "declared relationship with unknown endpoint column",
			desc: &schema.Descriptor{
				Tables: []models.Table{
					{Name: "a", Columns: []models.Column{{Name: "x"}}},
					{Name: "b", Columns: []models.Column{{Name: "y"}}},
				},
				Relationships: []models.Relationship{
					{SourceTable: "a", SourceColumn: "x", TargetTable: "b", TargetColumn: "z"},
				},
			},
			reason: apperrors.SchemaReasonUnknownColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.NewModel(tt.desc)
			require.Error(t, err)

			var loadErr *apperrors.SchemaLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.reason, loadErr.Reason)
		})
	}
}

func TestModelAccessors(t *testing.T) {
	model := testhelpers.ClinicModel(t)

	assert.Equal(t, "clinic", model.Database())
	assert.Len(t, model.Tables(), 8)

	visit := model.Table("visit")
	require.NotNil(t, visit)
	assert.Equal(t, []string{"visit_id"}, visit.PrimaryKeys())
	assert.Nil(t, model.Table("invoice"))

	assert.Len(t, model.TablesByCategory("finance"), 2)
	assert.Empty(t, model.TablesByCategory("warehouse"))

	// visit carries two FK columns, and two other tables point at it.
	assert.Equal(t, 4, model.Degree("visit"))
	assert.Len(t, model.RelationshipsFor("visit"), 4)
	assert.Equal(t, 0, model.Degree("audit_log"))
}

func TestModelEdgeOrderIsDeclarationOrder(t *testing.T) {
	model := testhelpers.ClinicModel(t)

	edges := model.Relationships()
	require.Len(t, edges, 5)
	assert.Equal(t, "visit.patient_id -> patient.patient_id", edges[0].String())
	assert.Equal(t, "visit.doctor_id -> doctor.doctor_id", edges[1].String())
	assert.Equal(t, "diagnosis.visit_id -> visit.visit_id", edges[2].String())
}
