// Package logging builds the process logger and scrubs sensitive values
// before they reach log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New constructs the root logger for the given environment. Production
// gets sampled JSON output; anything else gets the human-readable
// development encoder with debug enabled.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	switch env {
	case "production":
		logger, err = zap.NewProduction()
	default:
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
