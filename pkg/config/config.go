// Package config loads engine configuration from config.yaml with
// environment variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for klinika-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables override YAML values. Secrets
// (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Target database (the schema being questioned)
	Target TargetConfig `yaml:"target"`

	// SQL generation model
	LLM LLMConfig `yaml:"llm"`

	// Query planning bounds
	Planner PlannerConfig `yaml:"planner"`

	// SQL validation thresholds
	Validator ValidatorConfig `yaml:"validator"`

	// Schema model source
	Schema SchemaConfig `yaml:"schema"`
}

// TargetConfig holds the connection settings for the target database.
type TargetConfig struct {
	Driver   string `yaml:"driver" env:"TARGET_DRIVER" env-default:"mysql"`
	Host     string `yaml:"host" env:"TARGET_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"TARGET_PORT" env-default:"3306"`
	User     string `yaml:"user" env:"TARGET_USER" env-default:"root"`
	Password string `yaml:"-" env:"TARGET_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"TARGET_DATABASE"`
	MaxConns int32  `yaml:"max_conns" env:"TARGET_MAX_CONNS" env-default:"10"`
	// Execute controls whether validated queries are run. When false the
	// engine plans and validates only.
	Execute bool `yaml:"execute" env:"TARGET_EXECUTE" env-default:"true"`
}

// LLMConfig holds the generation model settings.
type LLMConfig struct {
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint    string  `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model       string  `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey      string  `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0"`
	// MaxAttempts bounds the generate-validate loop per question.
	MaxAttempts int `yaml:"max_attempts" env:"LLM_MAX_ATTEMPTS" env-default:"3"`
}

// PlannerConfig bounds query planning output.
type PlannerConfig struct {
	MaxContextChars    int     `yaml:"max_context_chars" env:"PLANNER_MAX_CONTEXT_CHARS" env-default:"4000"`
	MaxColumnsPerTable int     `yaml:"max_columns_per_table" env:"PLANNER_MAX_COLUMNS_PER_TABLE" env-default:"12"`
	FallbackHubs       int     `yaml:"fallback_hubs" env:"PLANNER_FALLBACK_HUBS" env-default:"2"`
	RelatedMaxHops     int     `yaml:"related_max_hops" env:"PLANNER_RELATED_MAX_HOPS" env-default:"1"`
	HubPenalty         float64 `yaml:"hub_penalty" env:"PLANNER_HUB_PENALTY" env-default:"1.0"`
}

// ValidatorConfig holds SQL validation thresholds.
type ValidatorConfig struct {
	// LargeTableRows is the row count above which an unbounded query earns
	// a LIMIT suggestion; 0 disables the check.
	LargeTableRows int64 `yaml:"large_table_rows" env:"VALIDATOR_LARGE_TABLE_ROWS" env-default:"10000"`
}

// SchemaConfig selects where the schema model comes from.
type SchemaConfig struct {
	// Source is "descriptor" to load a YAML/JSON descriptor file, or
	// "introspect" to read the target database's information schema.
	Source         string `yaml:"source" env:"SCHEMA_SOURCE" env-default:"introspect"`
	DescriptorPath string `yaml:"descriptor_path" env:"SCHEMA_DESCRIPTOR_PATH" env-default:""`
	SampleRowLimit int    `yaml:"sample_row_limit" env:"SCHEMA_SAMPLE_ROW_LIMIT" env-default:"3"`

	// SensitiveColumnsStr is a comma-separated list of table.column names
	// (or bare column names, matched in every table) to tag sensitive on
	// top of descriptor tags.
	SensitiveColumnsStr string `yaml:"sensitive_columns" env:"SCHEMA_SENSITIVE_COLUMNS" env-default:""`

	// SensitiveColumns is the parsed form of SensitiveColumnsStr.
	SensitiveColumns []string `yaml:"-"`
}

// Load reads configuration from the given YAML file with environment
// variable overrides. The version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.Schema.SensitiveColumns = splitList(cfg.Schema.SensitiveColumnsStr)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Schema.Source == "descriptor" && c.Schema.DescriptorPath == "" {
		return fmt.Errorf("schema.descriptor_path is required when schema.source is descriptor")
	}
	if c.Schema.Source == "introspect" && c.Target.Database == "" {
		return fmt.Errorf("target.database is required when schema.source is introspect")
	}
	return nil
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
