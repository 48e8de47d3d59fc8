// Package config loads the codegen configuration.
//
// Settings are merged from TOML files in increasing precedence:
//
//	/etc/codegen/config.toml
//	~/.codegen/config.toml
//	codegen.toml in the working directory or its nearest ancestor
//	CODEGEN_* environment variables (CODEGEN_GENERATE_HASH_OUTPUT=true)
//
// Command line flags are applied on top by the caller.
package config

import (
	"strings"

	"github.com/teranos/codegen/engine/marker"
	"github.com/teranos/codegen/errors"
)

// Config is the complete codegen configuration.
type Config struct {
	Markers  marker.Markers `mapstructure:"markers" toml:"markers" yaml:"markers"`
	Generate GenerateConfig `mapstructure:"generate" toml:"generate" yaml:"generate"`
	Paths    PathsConfig    `mapstructure:"paths" toml:"paths" yaml:"paths"`
	Database DatabaseConfig `mapstructure:"database" toml:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" toml:"log" yaml:"log"`

	// Defines are NAME=VALUE pairs visible to snippets as globals.
	// A list rather than a table so names keep their case.
	Defines []string `mapstructure:"defines" toml:"defines" yaml:"defines"`
}

// GenerateConfig controls document processing
type GenerateConfig struct {
	HashOutput   bool   `mapstructure:"hash_output" toml:"hash_output" yaml:"hash_output"`
	DeleteCode   bool   `mapstructure:"delete_code" toml:"delete_code" yaml:"delete_code"`
	WarnEmpty    bool   `mapstructure:"warn_empty" toml:"warn_empty" yaml:"warn_empty"`
	UnixNewlines bool   `mapstructure:"unix_newlines" toml:"unix_newlines" yaml:"unix_newlines"`
	EOFCanBeEnd  bool   `mapstructure:"eof_can_be_end" toml:"eof_can_be_end" yaml:"eof_can_be_end"`
	Encoding     string `mapstructure:"encoding" toml:"encoding" yaml:"encoding"` // empty = UTF-8
	Jobs         int    `mapstructure:"jobs" toml:"jobs" yaml:"jobs"`             // parallel files (0 = one)
	Replace      bool   `mapstructure:"replace" toml:"replace" yaml:"replace"`
}

// PathsConfig lists directories searched for templates and modules
type PathsConfig struct {
	Include []string `mapstructure:"include" toml:"include" yaml:"include"`
	Modules []string `mapstructure:"modules" toml:"modules" yaml:"modules"` // roots holding a modules/ directory
}

// DatabaseConfig locates the configuration and property databases
type DatabaseConfig struct {
	Kconfig  string `mapstructure:"kconfig" toml:"kconfig" yaml:"kconfig"`       // Kconfig .config output
	DTSConf  string `mapstructure:"dts_conf" toml:"dts_conf" yaml:"dts_conf"`    // flat key=value properties
	EDTS     string `mapstructure:"edts" toml:"edts" yaml:"edts"`                // structured database, file or URL
	CacheDir string `mapstructure:"cache_dir" toml:"cache_dir" yaml:"cache_dir"` // download cache for remote databases
}

// LogConfig configures logging
type LogConfig struct {
	File  string `mapstructure:"file" toml:"file" yaml:"file"`
	JSON  bool   `mapstructure:"json" toml:"json" yaml:"json"`
	Theme string `mapstructure:"theme" toml:"theme" yaml:"theme"` // everforest, gruvbox
}

// File system constants
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// ParseDefines turns NAME[=VALUE] pairs into a map. A pair without a value
// defines the empty string; later pairs win.
func ParseDefines(pairs []string) (map[string]string, error) {
	defines := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, _ := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "define %q has no name", p)
		}
		defines[name] = value
	}
	return defines, nil
}
