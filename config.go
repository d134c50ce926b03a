package chainsight

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the .chainsight.yaml configuration file.
type Config struct {
	// Enabled toggles chain hints. Unset means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Rule is an optional chain-acceptance expression replacing the
	// built-in distinct-type gate. See Rule for the environment.
	Rule string `yaml:"rule,omitempty"`

	// BulkThreshold overrides DefaultBulkThreshold when positive.
	BulkThreshold int `yaml:"bulk_threshold,omitempty"`
}

// DefaultConfigNames are the filenames searched for.
var DefaultConfigNames = []string{".chainsight.yaml", ".chainsight.yml", "chainsight.yaml", "chainsight.yml"}

// HintsEnabled reports the feature flag, treating a nil config or unset
// field as enabled.
func (c *Config) HintsEnabled() bool {
	return c == nil || c.Enabled == nil || *c.Enabled
}

// RuleExpression returns the configured rule expression, empty for a nil
// config.
func (c *Config) RuleExpression() string {
	if c == nil {
		return ""
	}

	return c.Rule
}

// EffectiveBulkThreshold returns the configured bulk threshold, falling
// back to DefaultBulkThreshold for a nil config or unset field.
func (c *Config) EffectiveBulkThreshold() int {
	if c == nil || c.BulkThreshold <= 0 {
		return DefaultBulkThreshold
	}

	return c.BulkThreshold
}

// CompiledRule compiles the configured acceptance expression, or returns
// nil when none is set.
func (c *Config) CompiledRule() (*Rule, error) {
	if c == nil || c.Rule == "" {
		return nil, nil
	}

	return CompileRule(c.Rule)
}

// LoadConfig finds and loads the nearest config file walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
