package schema

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// PostgresIntrospector builds a schema descriptor from a live PostgreSQL
// database via information_schema and pg_class.
type PostgresIntrospector struct {
	pool   *pgxpool.Pool
	opts   IntrospectOptions
	logger *zap.Logger
}

// NewPostgresIntrospector wraps an open pgx pool.
func NewPostgresIntrospector(pool *pgxpool.Pool, opts IntrospectOptions, logger *zap.Logger) *PostgresIntrospector {
	if opts.Schema == "" {
		opts.Schema = "public"
	}
	if opts.SampleRowLimit < 0 {
		opts.SampleRowLimit = 0
	}
	return &PostgresIntrospector{pool: pool, opts: opts, logger: logger.Named("introspect")}
}

// Introspect reads tables, columns, and foreign keys into a descriptor.
func (p *PostgresIntrospector) Introspect(ctx context.Context) (*Descriptor, error) {
	desc := &Descriptor{Database: p.opts.Schema}

	tables, err := p.listTables(ctx)
	if err != nil {
		return nil, err
	}

	fks, err := p.foreignKeys(ctx)
	if err != nil {
		return nil, err
	}

	for _, t := range tables {
		table := t
		if err := p.fillColumns(ctx, &table, fks); err != nil {
			return nil, err
		}
		if p.opts.SampleRowLimit > 0 {
			rows, err := p.sampleRows(ctx, table.Name)
			if err != nil {
				p.logger.Warn("sample rows skipped",
					zap.String("table", table.Name), zap.Error(err))
			} else {
				table.SampleRows = rows
			}
		}
		desc.Tables = append(desc.Tables, table)
	}

	p.logger.Info("introspected Postgres schema",
		zap.String("schema", p.opts.Schema),
		zap.Int("tables", len(desc.Tables)))
	return desc, nil
}

func (p *PostgresIntrospector) listTables(ctx context.Context) ([]models.Table, error) {
	const q = `
		SELECT t.table_name, GREATEST(COALESCE(c.reltuples, 0), 0)::bigint
		FROM information_schema.tables t
		LEFT JOIN pg_class c ON c.relname = t.table_name
			AND c.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = $1)
		WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name`

	rows, err := p.pool.Query(ctx, q, p.opts.Schema)
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

func (p *PostgresIntrospector) fillColumns(ctx context.Context, table *models.Table, fks map[string]map[string]*models.ForeignKeyRef) error {
	const q = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			COALESCE(pk.is_pk, false)
		FROM information_schema.columns c
		LEFT JOIN (
			SELECT kcu.column_name, true AS is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = $1 AND tc.table_name = $2
		) pk ON pk.column_name = c.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	rows, err := p.pool.Query(ctx, q, p.opts.Schema, table.Name)
	if err != nil {
		return fmt.Errorf("columns of %s: %w", table.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.PrimaryKey); err != nil {
			return fmt.Errorf("scan column of %s: %w", table.Name, err)
		}
		c.Sensitive = p.opts.sensitive(table.Name, c.Name)
		if byCol, ok := fks[table.Name]; ok {
			c.References = byCol[c.Name]
		}
		table.Columns = append(table.Columns, c)
	}
	return rows.Err()
}

func (p *PostgresIntrospector) foreignKeys(ctx context.Context) (map[string]map[string]*models.ForeignKeyRef, error) {
	const q = `
		SELECT kcu.table_name, kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1
		ORDER BY kcu.table_name, kcu.ordinal_position`

	rows, err := p.pool.Query(ctx, q, p.opts.Schema)
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

func (p *PostgresIntrospector) sampleRows(ctx context.Context, table string) ([]map[string]any, error) {
	q := fmt.Sprintf(`SELECT * FROM %q.%q LIMIT %d`, p.opts.Schema, table, p.opts.SampleRowLimit)
	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var samples []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			if b, ok := values[i].([]byte); ok {
				row[string(fd.Name)] = string(b)
			} else {
				row[string(fd.Name)] = values[i]
			}
		}
		samples = append(samples, row)
	}
	return samples, rows.Err()
}
