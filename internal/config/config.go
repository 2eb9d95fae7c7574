// Package config loads dbinspect settings from defaults, an optional YAML
// file, DBINSPECT_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes every environment variable read by Load
	EnvPrefix = "DBINSPECT_"

	// DefaultConfigFile is read from the working directory when no --config is given
	DefaultConfigFile = "dbinspect.yaml"

	// FallbackDSNEnv is consulted when no DSN is configured any other way
	FallbackDSNEnv = "DATABASE_URL"

	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds the settings of one inspection run
type Config struct {
	DSN        string `koanf:"dsn"`
	Schema     string `koanf:"schema"`
	Tables     string `koanf:"tables"`
	Exclude    string `koanf:"exclude"`
	OutputDir  string `koanf:"output_dir"`
	FileFormat string `koanf:"file_format"`
	LogLevel   string `koanf:"log_level"`
	LogFormat  string `koanf:"log_format"`
}

// TableList returns the parsed --tables list
func (c *Config) TableList() []string {
	return ParseTableList(c.Tables)
}

// ExcludeList returns the parsed --exclude list
func (c *Config) ExcludeList() []string {
	return ParseTableList(c.Exclude)
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database connection string is required (--dsn, %sDSN or %s)", EnvPrefix, FallbackDSNEnv)
	}
	switch c.FileFormat {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid file format: %s (must be '%s' or '%s')", c.FileFormat, FormatJSON, FormatYAML)
	}
	return nil
}

// ParseTableList splits a comma-separated table list, dropping blanks
func ParseTableList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var tables []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

// Load builds a Config. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"output_dir":  ".",
		"file_format": FormatJSON,
		"log_level":   "info",
		"log_format":  "console",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	path := cfgFile
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment: DBINSPECT_OUTPUT_DIR -> output_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.DSN == "" {
		cfg.DSN = os.Getenv(FallbackDSNEnv)
	}
	cfg.FileFormat = strings.ToLower(cfg.FileFormat)

	return &cfg, nil
}
