package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/schema"
)

const yamlDescriptor = `
database: clinic
tables:
  - name: patient
    category: master
    columns:
      - name: patient_id
        type: varchar(15)
        primary_key: true
      - name: name
        type: varchar(80)
        sensitive: true
  - name: visit
    columns:
      - name: visit_id
        type: varchar(17)
        primary_key: true
      - name: patient_id
        type: varchar(15)
        references:
          table: patient
          column: patient_id
relationships:
  - source_table: visit
    source_column: patient_id
    target_table: patient
    target_column: patient_id
    weight: 0.5
`

const jsonDescriptor = `{
  "database": "clinic",
  "tables": [
    {
      "name": "patient",
      "columns": [{"name": "patient_id", "type": "varchar(15)", "primary_key": true}]
    }
  ]
}`

func TestParseDescriptorYAML(t *testing.T) {
	desc, err := schema.ParseDescriptor(strings.NewReader(yamlDescriptor))
	require.NoError(t, err)

	assert.Equal(t, "clinic", desc.Database)
	require.Len(t, desc.Tables, 2)
	assert.Equal(t, "patient", desc.Tables[0].Name)
	assert.True(t, desc.Tables[0].Columns[1].Sensitive)

	ref := desc.Tables[1].Column("patient_id").References
	require.NotNil(t, ref)
	assert.Equal(t, "patient", ref.Table)

	require.Len(t, desc.Relationships, 1)
	assert.Equal(t, 0.5, desc.Relationships[0].Weight)
}

func TestParseDescriptorJSON(t *testing.T) {
	desc, err := schema.ParseDescriptor(strings.NewReader(jsonDescriptor))
	require.NoError(t, err)

	assert.Equal(t, "clinic", desc.Database)
	require.Len(t, desc.Tables, 1)
	assert.True(t, desc.Tables[0].Columns[0].PrimaryKey)
}

func TestParseDescriptorMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not a document", input: ":\nnot yaml: ["},
		{name: "no tables", input: "database: clinic\ntables: []"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.ParseDescriptor(strings.NewReader(tt.input))
			require.Error(t, err)

			var loadErr *apperrors.SchemaLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, apperrors.SchemaReasonMalformed, loadErr.Reason)
		})
	}
}

func TestLoadBuildsModel(t *testing.T) {
	model, err := schema.Load(strings.NewReader(yamlDescriptor))
	require.NoError(t, err)

	assert.Equal(t, "clinic", model.Database())
	require.NotNil(t, model.Table("visit"))

	// The column-level FK and the explicit relationship both become edges.
	assert.Len(t, model.Relationships(), 2)
}
