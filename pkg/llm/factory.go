package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewGenerator creates the configured SQL generator. The provider selects
// the wire protocol; an empty provider defaults to openai since local
// deployments overwhelmingly speak that dialect.
func NewGenerator(cfg *Config, logger *zap.Logger) (SQLGenerator, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
