package models

// ForeignKeyRef names the table and column a foreign-key column points at.
// It is resolved by name against the schema snapshot, not a live pointer:
// the graph is rebuilt wholesale from a complete snapshot on every reload.
type ForeignKeyRef struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// Column describes one column of a table.
type Column struct {
	Name       string         `json:"name" yaml:"name"`
	DataType   string         `json:"type" yaml:"type"`
	Nullable   bool           `json:"nullable" yaml:"nullable"`
	PrimaryKey bool           `json:"primary_key" yaml:"primary_key"`
	Sensitive  bool           `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
	References *ForeignKeyRef `json:"references,omitempty" yaml:"references,omitempty"`
}

// IsKey reports whether the column is a primary key or carries a foreign key.
func (c *Column) IsKey() bool {
	return c.PrimaryKey || c.References != nil
}

// Table describes one relational table as modeled, not a live database
// object. Immutable after load.
type Table struct {
	Name       string           `json:"name" yaml:"name"`
	Category   string           `json:"category,omitempty" yaml:"category,omitempty"`
	Role       string           `json:"role,omitempty" yaml:"role,omitempty"`
	RowCount   int64            `json:"row_count,omitempty" yaml:"row_count,omitempty"`
	Columns    []Column         `json:"columns" yaml:"columns"`
	SampleRows []map[string]any `json:"sample_rows,omitempty" yaml:"sample_rows,omitempty"`
}

// Column returns the named column, or nil if the table has no such column.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// KeyColumns returns the table's primary-key and foreign-key columns in
// declaration order.
func (t *Table) KeyColumns() []Column {
	var keys []Column
	for _, c := range t.Columns {
		if c.IsKey() {
			keys = append(keys, c)
		}
	}
	return keys
}

// PrimaryKeys returns the names of the table's primary-key columns.
func (t *Table) PrimaryKeys() []string {
	var pks []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pks = append(pks, c.Name)
		}
	}
	return pks
}

// Relationship is a modeled foreign-key edge between two tables. The source
// table owns the foreign key; traversal treats the edge as bidirectional.
// Multiple foreign keys between the same two tables stay distinct edges.
type Relationship struct {
	SourceTable  string  `json:"source_table" yaml:"source_table"`
	SourceColumn string  `json:"source_column" yaml:"source_column"`
	TargetTable  string  `json:"target_table" yaml:"target_table"`
	TargetColumn string  `json:"target_column" yaml:"target_column"`
	Weight       float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
}

// DefaultRelationshipWeight is used when a descriptor does not declare a
// relationship strength. With uniform weights shortest-path search degrades
// to plain BFS.
const DefaultRelationshipWeight = 1.0

// EffectiveWeight returns the declared weight, or the default when unset.
func (r Relationship) EffectiveWeight() float64 {
	if r.Weight <= 0 {
		return DefaultRelationshipWeight
	}
	return r.Weight
}

// Touches reports whether the edge has the given table on either end.
func (r Relationship) Touches(table string) bool {
	return r.SourceTable == table || r.TargetTable == table
}

// Other returns the opposite endpoint of the edge relative to table.
// Returns an empty string when the edge does not touch table.
func (r Relationship) Other(table string) string {
	switch table {
	case r.SourceTable:
		return r.TargetTable
	case r.TargetTable:
		return r.SourceTable
	}
	return ""
}

// String renders the edge in the canonical "source.col -> target.col" form
// used in plan context and parsed back by ParseJoinPath.
func (r Relationship) String() string {
	return r.SourceTable + "." + r.SourceColumn + " -> " + r.TargetTable + "." + r.TargetColumn
}
