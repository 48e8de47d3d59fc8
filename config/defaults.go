package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/teranos/codegen/engine/marker"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("markers.begin_spec", marker.DefaultBeginSpec)
	v.SetDefault("markers.end_spec", marker.DefaultEndSpec)
	v.SetDefault("markers.end_output", marker.DefaultEndOutput)

	v.SetDefault("generate.hash_output", false)
	v.SetDefault("generate.delete_code", false)
	v.SetDefault("generate.warn_empty", false)
	v.SetDefault("generate.unix_newlines", false)
	v.SetDefault("generate.eof_can_be_end", false)
	v.SetDefault("generate.encoding", "")
	v.SetDefault("generate.jobs", 1)
	v.SetDefault("generate.replace", false)

	v.SetDefault("paths.include", []string{})
	v.SetDefault("paths.modules", []string{})

	v.SetDefault("database.kconfig", "")
	v.SetDefault("database.dts_conf", "")
	v.SetDefault("database.edts", "")
	v.SetDefault("database.cache_dir", defaultCacheDir())

	v.SetDefault("log.file", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")

	v.SetDefault("defines", []string{})
}

// BindEnvVars binds the database locations to their conventional build
// system variables in addition to the CODEGEN_ prefixed names.
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.kconfig", "CODEGEN_DATABASE_KCONFIG", "KCONFIG_CONFIG")
	v.BindEnv("database.dts_conf", "CODEGEN_DATABASE_DTS_CONF", "GENERATED_DTS_BOARD_CONF")
	v.BindEnv("database.edts", "CODEGEN_DATABASE_EDTS", "GENERATED_DTS_BOARD_EDTS")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "codegen")
	}
	return filepath.Join(dir, "codegen")
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(err)
	}
	return cfg
}
