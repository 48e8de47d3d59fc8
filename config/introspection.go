package config

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource is where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/codegen/config.toml
	SourceUser        ConfigSource = "user"        // ~/.codegen/config.toml
	SourceProject     ConfigSource = "project"     // nearest codegen.toml
	SourceExplicit    ConfigSource = "explicit"    // --config FILE
	SourceEnvironment ConfigSource = "environment" // CODEGEN_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource `json:"source" yaml:"source"`
	Path   string       `json:"path,omitempty" yaml:"path,omitempty"` // File path or environment variable name
}

// SettingInfo is one effective setting and its origin
type SettingInfo struct {
	Key   string      `json:"key" yaml:"key"`
	Value interface{} `json:"value" yaml:"value"`
	SourceInfo
}

// Settings flattens the effective configuration, sorted by key, with the
// source of each value.
func (l *Loaded) Settings() []SettingInfo {
	var out []SettingInfo
	flattenSettings(l.Viper.AllSettings(), "", l.Sources, &out)
	return out
}

func flattenSettings(settings map[string]interface{}, prefix string, sources map[string]SourceInfo, out *[]SettingInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			flattenSettings(nested, fullKey, sources, out)
			continue
		}

		info := SourceInfo{Source: SourceDefault}
		if si, ok := sources[fullKey]; ok {
			info = si
		}
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(fullKey, ".", "_"))
		if _, ok := os.LookupEnv(envKey); ok {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		*out = append(*out, SettingInfo{Key: fullKey, Value: value, SourceInfo: info})
	}
}
