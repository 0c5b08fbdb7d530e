// Package config provides configuration loading and validation for sqlshift.
package config

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// Input is the SQL dump to read. ${VAR} and $VAR are expanded.
	Input string `yaml:"input"`

	// Output is the file to write, created or truncated. ${VAR} and $VAR are expanded.
	Output string `yaml:"output"`

	// Rules are tried in order against every line.
	Rules []RuleConfig `yaml:"rules"`

	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// RuleConfig shifts the identifiers of one table.
type RuleConfig struct {
	// Name identifies the rule in reports. Defaults to Table.
	Name string `yaml:"name,omitempty"`

	// Table is the name written after INSERT INTO.
	Table string `yaml:"table"`

	// Offset is added to each identifier. Required; may be negative.
	Offset *int64 `yaml:"offset"`

	Description string `yaml:"description,omitempty"`
}

// OffsetValue returns the offset, or zero when unset.
func (r *RuleConfig) OffsetValue() int64 {
	if r.Offset == nil {
		return 0
	}
	return *r.Offset
}

// LoggingConfig controls diagnostic output on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"` // console, json
}
