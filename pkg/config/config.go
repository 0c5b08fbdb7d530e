package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/sqlshift/internal/logger"
)

// tablePattern accepts bare, schema-qualified and quoted table names.
var tablePattern = regexp.MustCompile("^[A-Za-z0-9_.$`\"\\[\\]]+$")

// Load reads a configuration file, layers it over the defaults, applies
// environment overrides and validates the result.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.ApplyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDefault returns the defaults with environment overrides applied, for
// runs without a config file.
func LoadDefault() (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and fills in rule names.
func Validate(cfg *Config) error {
	cfg.Input = expandEnvVar(strings.TrimSpace(cfg.Input))
	cfg.Output = expandEnvVar(strings.TrimSpace(cfg.Output))

	if cfg.Input == "" {
		return errors.New("input: a source file is required")
	}
	if cfg.Output == "" {
		return errors.New("output: a destination file is required")
	}

	if len(cfg.Rules) == 0 {
		return errors.New("rules: at least one rule is required")
	}

	seen := make(map[string]bool, len(cfg.Rules))
	for i := range cfg.Rules {
		rule := &cfg.Rules[i]
		if err := validateRule(rule); err != nil {
			return fmt.Errorf("rules[%d] (%s): %w", i, rule.Name, err)
		}
		if seen[rule.Name] {
			return fmt.Errorf("rules[%d] (%s): duplicate rule name", i, rule.Name)
		}
		seen[rule.Name] = true
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	return nil
}

func validateRule(rule *RuleConfig) error {
	rule.Table = strings.TrimSpace(rule.Table)
	if rule.Table == "" {
		return errors.New("table is required")
	}
	if !tablePattern.MatchString(rule.Table) {
		return fmt.Errorf("invalid table name %q", rule.Table)
	}

	if rule.Name == "" {
		rule.Name = rule.Table
	}

	if rule.Offset == nil {
		return errors.New("offset is required")
	}

	return nil
}

func validateLogging(lc *LoggingConfig) error {
	if lc.Level == "" {
		lc.Level = DefaultLogLevel
	}
	if _, err := logger.ParseLevel(lc.Level); err != nil {
		return err
	}

	switch strings.ToLower(lc.Format) {
	case "":
		lc.Format = DefaultLogFormat
	case "console", "json":
		lc.Format = strings.ToLower(lc.Format)
	default:
		return fmt.Errorf("invalid format %q (must be console or json)", lc.Format)
	}

	return nil
}

// Write saves cfg as YAML to path. It never overwrites an existing file.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) // #nosec G304 G302
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("config file already exists: %s", path)
		}
		return fmt.Errorf("creating config file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing config file: %w", err)
	}
	return f.Close()
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
// Only a value that is entirely one variable reference is expanded.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
