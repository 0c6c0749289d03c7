package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/klinika-ai/klinika-engine/pkg/models"
	"github.com/klinika-ai/klinika-engine/pkg/retry"
)

// MySQLExecutor runs read statements over a database/sql pool.
type MySQLExecutor struct {
	db *sql.DB
}

// NewMySQLExecutor opens a MySQL connection pool and verifies it with a
// ping, retrying transient connection failures.
func NewMySQLExecutor(ctx context.Context, cfg *Config) (*MySQLExecutor, error) {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.ParseTime = true

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	maxConns := int(cfg.MaxConns)
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := retry.Do(ctx, nil, func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return &MySQLExecutor{db: db}, nil
}

// DB exposes the underlying pool for schema introspection.
func (e *MySQLExecutor) DB() *sql.DB {
	return e.db
}

// Query executes one read statement and materializes the result set.
// Driver []byte cells become strings so the result serializes as text.
func (e *MySQLExecutor) Query(ctx context.Context, sqlText string) (*models.QueryResult, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	result := &models.QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

func (e *MySQLExecutor) Ping(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *MySQLExecutor) Close() {
	e.db.Close()
}
