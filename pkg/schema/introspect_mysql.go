package schema

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// IntrospectOptions controls live schema introspection.
type IntrospectOptions struct {
	// Schema is the database (MySQL) or schema (Postgres) to introspect.
	Schema string
	// SampleRowLimit is how many preview rows to capture per table. 0
	// disables sampling.
	SampleRowLimit int
	// SensitiveColumns are "table.column" entries to tag as sensitive,
	// since information_schema carries no such metadata. A bare column
	// name tags that column wherever it appears.
	SensitiveColumns []string
}

func (o *IntrospectOptions) sensitive(table, column string) bool {
	qualified := table + "." + column
	for _, name := range o.SensitiveColumns {
		if name == qualified || name == column {
			return true
		}
	}
	return false
}

// MySQLIntrospector builds a schema descriptor from a live MySQL database
// via information_schema. Categories and role descriptions cannot be
// inferred from the catalog; operators enrich the exported descriptor.
type MySQLIntrospector struct {
	db     *sql.DB
	opts   IntrospectOptions
	logger *zap.Logger
}

// NewMySQLIntrospector wraps an open MySQL handle.
func NewMySQLIntrospector(db *sql.DB, opts IntrospectOptions, logger *zap.Logger) *MySQLIntrospector {
	if opts.SampleRowLimit < 0 {
		opts.SampleRowLimit = 0
	}
	return &MySQLIntrospector{db: db, opts: opts, logger: logger.Named("introspect")}
}

// Introspect reads tables, columns, and foreign keys into a descriptor.
func (m *MySQLIntrospector) Introspect(ctx context.Context) (*Descriptor, error) {
	desc := &Descriptor{Database: m.opts.Schema}

	tables, err := m.listTables(ctx)
	if err != nil {
		return nil, err
	}

	fks, err := m.foreignKeys(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range tables {
		table := t
		if err := m.fillColumns(ctx, &table, fks); err != nil {
			return nil, err
		}
		if m.opts.SampleRowLimit > 0 {
			rows, err := sampleRows(ctx, m.db, quoteMySQL(table.Name), m.opts.SampleRowLimit)
			if err != nil {
				// Sampling is best-effort; a locked or broken table must not
				// sink the whole introspection run.
				m.logger.Warn("sample rows skipped",
					zap.String("table", table.Name), zap.Error(err))
			} else {
				table.SampleRows = rows
			}
		}
		desc.Tables = append(desc.Tables, table)
	}

	m.logger.Info("introspected MySQL schema",
		zap.String("database", m.opts.Schema),
		zap.Int("tables", len(desc.Tables)))
	return desc, nil
}

func (m *MySQLIntrospector) listTables(ctx context.Context) ([]models.Table, error) {
	const q = `
		SELECT table_name, COALESCE(table_rows, 0)
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.QueryContext(ctx, q, m.opts.Schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.Name, &t.RowCount); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (m *MySQLIntrospector) fillColumns(ctx context.Context, table *models.Table, fks map[string]map[string]*models.ForeignKeyRef) error {
	const q = `
		SELECT column_name, data_type, is_nullable = 'YES', column_key = 'PRI'
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := m.db.QueryContext(ctx, q, m.opts.Schema, table.Name)
	if err != nil {
		return fmt.Errorf("columns of %s: %w", table.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.PrimaryKey); err != nil {
			return fmt.Errorf("scan column of %s: %w", table.Name, err)
		}
		c.Sensitive = m.opts.sensitive(table.Name, c.Name)
		if byCol, ok := fks[table.Name]; ok {
			c.References = byCol[c.Name]
		}
		table.Columns = append(table.Columns, c)
	}
	return rows.Err()
}

func (m *MySQLIntrospector) foreignKeys(ctx context.Context) (map[string]map[string]*models.ForeignKeyRef, error) {
	const q = `
		SELECT table_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND referenced_table_name IS NOT NULL
		ORDER BY table_name, ordinal_position`

	rows, err := m.db.QueryContext(ctx, q, m.opts.Schema)
	if err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	defer rows.Close()

	fks := make(map[string]map[string]*models.ForeignKeyRef)
	for rows.Next() {
		var table, column, refTable, refColumn string
		if err := rows.Scan(&table, &column, &refTable, &refColumn); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		if fks[table] == nil {
			fks[table] = make(map[string]*models.ForeignKeyRef)
		}
		fks[table][column] = &models.ForeignKeyRef{Table: refTable, Column: refColumn}
	}
	return fks, rows.Err()
}

func quoteMySQL(identifier string) string {
	return "`" + identifier + "`"
}

// sampleRows captures up to limit preview rows from a table. Byte slices
// are converted to strings so previews serialize readably.
func sampleRows(ctx context.Context, db *sql.DB, quotedTable string, limit int) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quotedTable, limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var samples []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		samples = append(samples, row)
	}
	return samples, rows.Err()
}
