package config

import (
	"fmt"
	"os"
	"strconv"
)

// Default values for configuration. They reproduce the original migration:
// sub_category rows from s.sql moved up by 14887 into q.sql.
const (
	DefaultInput     = "s.sql"
	DefaultOutput    = "q.sql"
	DefaultTable     = "sub_category"
	DefaultOffset    = int64(14887)
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
)

// Environment variable names.
const (
	EnvInput    = "SQLSHIFT_INPUT"
	EnvOutput   = "SQLSHIFT_OUTPUT"
	EnvOffset   = "SQLSHIFT_OFFSET"
	EnvLogLevel = "SQLSHIFT_LOG_LEVEL"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Input:  DefaultInput,
		Output: DefaultOutput,
		Rules: []RuleConfig{
			{Name: DefaultTable, Table: DefaultTable, Offset: Int64(DefaultOffset)},
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Int64 returns a pointer to v, for building RuleConfig literals.
func Int64(v int64) *int64 {
	return &v
}

// ApplyEnvironmentOverrides applies environment variable overrides to the config.
// SQLSHIFT_OFFSET only applies when exactly one rule is configured.
func (c *Config) ApplyEnvironmentOverrides() error {
	if v := os.Getenv(EnvInput); v != "" {
		c.Input = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(EnvOffset); v != "" {
		offset, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvOffset, v)
		}
		if len(c.Rules) != 1 {
			return fmt.Errorf("%s: set with %d rules configured, exactly one is required", EnvOffset, len(c.Rules))
		}
		c.Rules[0].Offset = Int64(offset)
	}

	return nil
}
