package schema

import (
	"fmt"

	"github.com/klinika-ai/klinika-engine/pkg/apperrors"
	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// Model is the validated, immutable in-memory schema snapshot. It is built
// all-or-nothing: a descriptor with a duplicate table or a dangling foreign
// key never produces a partially valid model. Once built it is read-only and
// safe to share across concurrent requests.
type Model struct {
	database      string
	tables        []models.Table
	byName        map[string]*models.Table
	relationships []models.Relationship
	relsByTable   map[string][]models.Relationship
}

// NewModel validates a descriptor and builds the model. Column-level foreign
// keys and explicitly declared relationships both become edges; every edge
// endpoint must name an existing table and column.
func NewModel(desc *Descriptor) (*Model, error) {
	m := &Model{
		database:    desc.Database,
		tables:      desc.Tables,
		byName:      make(map[string]*models.Table, len(desc.Tables)),
		relsByTable: make(map[string][]models.Relationship),
	}

	for i := range m.tables {
		t := &m.tables[i]
		if t.Name == "" {
			return nil, &apperrors.SchemaLoadError{
				Reason: apperrors.SchemaReasonMalformed,
				Detail: fmt.Sprintf("table at index %d has no name", i),
			}
		}
		if _, exists := m.byName[t.Name]; exists {
			return nil, &apperrors.SchemaLoadError{
				Reason: apperrors.SchemaReasonDuplicateTable,
				Detail: t.Name,
			}
		}
		m.byName[t.Name] = t
	}

	// Foreign-key edges in declaration order: tables first, then columns.
	for i := range m.tables {
		t := &m.tables[i]
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			edge := models.Relationship{
				SourceTable:  t.Name,
				SourceColumn: c.Name,
				TargetTable:  c.References.Table,
				TargetColumn: c.References.Column,
			}
			if err := m.checkEdge(edge); err != nil {
				return nil, err
			}
			m.addEdge(edge)
		}
	}

	for _, edge := range desc.Relationships {
		if err := m.checkEdge(edge); err != nil {
			return nil, err
		}
		m.addEdge(edge)
	}

	return m, nil
}

func (m *Model) checkEdge(edge models.Relationship) error {
	for _, end := range []struct{ table, column string }{
		{edge.SourceTable, edge.SourceColumn},
		{edge.TargetTable, edge.TargetColumn},
	} {
		t, ok := m.byName[end.table]
		if !ok {
			return &apperrors.SchemaLoadError{
				Reason: apperrors.SchemaReasonUnknownTable,
				Detail: fmt.Sprintf("%s (referenced by %s)", end.table, edge.String()),
			}
		}
		if t.Column(end.column) == nil {
			return &apperrors.SchemaLoadError{
				Reason: apperrors.SchemaReasonUnknownColumn,
				Detail: fmt.Sprintf("%s.%s (referenced by %s)", end.table, end.column, edge.String()),
			}
		}
	}
	return nil
}

func (m *Model) addEdge(edge models.Relationship) {
	m.relationships = append(m.relationships, edge)
	m.relsByTable[edge.SourceTable] = append(m.relsByTable[edge.SourceTable], edge)
	if edge.TargetTable != edge.SourceTable {
		m.relsByTable[edge.TargetTable] = append(m.relsByTable[edge.TargetTable], edge)
	}
}

// Database returns the descriptor's database name.
func (m *Model) Database() string { return m.database }

// Table returns the named table, or nil when unknown.
func (m *Model) Table(name string) *models.Table {
	return m.byName[name]
}

// Tables returns all tables in declaration order. The slice is shared;
// callers must not mutate it.
func (m *Model) Tables() []models.Table {
	return m.tables
}

// TablesByCategory returns the tables of one category, declaration order.
func (m *Model) TablesByCategory(category string) []models.Table {
	var out []models.Table
	for _, t := range m.tables {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Relationships returns every edge in declaration order.
func (m *Model) Relationships() []models.Relationship {
	return m.relationships
}

// RelationshipsFor returns the edges touching the named table, in the order
// they were declared.
func (m *Model) RelationshipsFor(table string) []models.Relationship {
	return m.relsByTable[table]
}

// Degree returns the number of edges touching the named table.
func (m *Model) Degree(table string) int {
	return len(m.relsByTable[table])
}
