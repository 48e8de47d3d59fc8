package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/teranos/codegen/errors"
)

// ProjectFileName is the project configuration searched for upward from
// the working directory.
const ProjectFileName = "codegen.toml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "CODEGEN"

// Loaded is a configuration together with the viper instance it came from.
type Loaded struct {
	*Config
	Viper   *viper.Viper
	Sources map[string]SourceInfo // per flattened key, file settings only
}

// Load reads the layered configuration. When explicit is set only that file
// is read, on top of defaults and environment.
func Load(explicit string) (*Loaded, error) {
	var layers []Layer
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "config file %s", explicit), errors.ErrNotFound)
		}
		layers = []Layer{{Source: SourceExplicit, Path: explicit}}
	} else {
		layers = DefaultLayers()
	}
	return LoadLayers(layers)
}

// Layer is one configuration file and its precedence class.
type Layer struct {
	Source ConfigSource
	Path   string
}

// DefaultLayers returns the standard configuration files in increasing
// precedence. Missing files are skipped when loading.
func DefaultLayers() []Layer {
	layers := []Layer{{Source: SourceSystem, Path: "/etc/codegen/config.toml"}}
	if home, err := os.UserHomeDir(); err == nil {
		layers = append(layers, Layer{Source: SourceUser, Path: filepath.Join(home, ".codegen", "config.toml")})
	}
	if wd, err := os.Getwd(); err == nil {
		if p := findProjectConfig(wd); p != "" {
			layers = append(layers, Layer{Source: SourceProject, Path: p})
		}
	}
	return layers
}

// LoadLayers merges the given files over the defaults, then applies the
// environment.
func LoadLayers(layers []Layer) (*Loaded, error) {
	v := newViper()
	sources := map[string]SourceInfo{}

	for _, l := range layers {
		if _, err := os.Stat(l.Path); err != nil {
			continue
		}
		layer := viper.New()
		layer.SetConfigFile(l.Path)
		layer.SetConfigType("toml")
		if err := layer.ReadInConfig(); err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "failed to read config file %s", l.Path), errors.ErrInvalidConfig)
		}
		if err := v.MergeConfigMap(layer.AllSettings()); err != nil {
			return nil, errors.Wrapf(err, "failed to merge config file %s", l.Path)
		}
		for _, key := range layer.AllKeys() {
			sources[key] = SourceInfo{Source: l.Source, Path: l.Path}
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	return &Loaded{Config: cfg, Viper: v, Sources: sources}, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)
	SetDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to unmarshal config"), errors.ErrInvalidConfig)
	}
	return &cfg, nil
}

// findProjectConfig walks up from dir to the first codegen.toml.
func findProjectConfig(dir string) string {
	for {
		p := filepath.Join(dir, ProjectFileName)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
