// Package database connects to the target database and executes validated
// read statements.
package database

import (
	"context"
	"fmt"

	"github.com/klinika-ai/klinika-engine/pkg/models"
)

// Executor runs validated read statements against the target database.
// Implementations never write: the validator has already rejected anything
// but read verbs, and connections are opened read-only where the driver
// supports it.
type Executor interface {
	Query(ctx context.Context, sql string) (*models.QueryResult, error)
	Ping(ctx context.Context) error
	Close()
}

// Config holds target database connection configuration.
type Config struct {
	Driver   string // "mysql" or "postgres"
	Host     string
	Port     int
	User     string
	Password string
	Database string
	MaxConns int32
}

// Connect opens an executor for the configured driver.
func Connect(ctx context.Context, cfg *Config) (Executor, error) {
	switch cfg.Driver {
	case "", "mysql":
		return NewMySQLExecutor(ctx, cfg)
	case "postgres":
		return NewPostgresExecutor(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
