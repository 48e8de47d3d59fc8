package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/codegen/engine/marker"
	"github.com/teranos/codegen/errors"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, marker.Default(), cfg.Markers)
	assert.Equal(t, 1, cfg.Generate.Jobs)
	assert.False(t, cfg.Generate.HashOutput)
	assert.Equal(t, "everforest", cfg.Log.Theme)
	assert.NotEmpty(t, cfg.Database.CacheDir)
	require.NoError(t, cfg.Validate())
}

func TestLoadLayersPrecedence(t *testing.T) {
	dir := t.TempDir()
	user := writeConfig(t, dir, "user.toml", `
[generate]
hash_output = true
jobs = 4

[paths]
include = ["/user/templates"]
`)
	project := writeConfig(t, dir, "codegen.toml", `
defines = ["BOARD=nucleo", "DEBUG"]

[generate]
jobs = 2

[markers]
begin_spec = "[[[codegen"
`)

	l, err := LoadLayers([]Layer{
		{Source: SourceSystem, Path: filepath.Join(dir, "missing.toml")},
		{Source: SourceUser, Path: user},
		{Source: SourceProject, Path: project},
	})
	require.NoError(t, err)

	assert.True(t, l.Generate.HashOutput, "user layer survives project layer")
	assert.Equal(t, 2, l.Generate.Jobs)
	assert.Equal(t, []string{"/user/templates"}, l.Paths.Include)
	assert.Equal(t, "[[[codegen", l.Markers.BeginSpec)
	assert.Equal(t, marker.DefaultEndSpec, l.Markers.EndSpec)
	assert.Equal(t, []string{"BOARD=nucleo", "DEBUG"}, l.Defines)

	assert.Equal(t, SourceInfo{Source: SourceProject, Path: project}, l.Sources["generate.jobs"])
	assert.Equal(t, SourceInfo{Source: SourceUser, Path: user}, l.Sources["generate.hash_output"])
}

func TestLoadEnvironmentOverridesFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "codegen.toml", "[generate]\njobs = 2\n")
	t.Setenv("CODEGEN_GENERATE_JOBS", "8")
	t.Setenv("KCONFIG_CONFIG", "/build/.config")

	l, err := LoadLayers([]Layer{{Source: SourceProject, Path: path}})
	require.NoError(t, err)
	assert.Equal(t, 8, l.Generate.Jobs)
	assert.Equal(t, "/build/.config", l.Database.Kconfig)

	var jobs SettingInfo
	for _, s := range l.Settings() {
		if s.Key == "generate.jobs" {
			jobs = s
		}
	}
	assert.Equal(t, SourceEnvironment, jobs.Source)
	assert.Equal(t, "CODEGEN_GENERATE_JOBS", jobs.Path)
}

func TestLoadExplicit(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "alt.toml", "[log]\njson = true\n")

	l, err := Load(path)
	require.NoError(t, err)
	assert.True(t, l.Log.JSON)
	assert.Equal(t, SourceExplicit, l.Sources["log.json"].Source)

	_, err = Load(filepath.Join(dir, "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bad.toml", "[generate\njobs = ")

	_, err := LoadLayers([]Layer{{Source: SourceProject, Path: path}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestFindProjectConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	want := writeConfig(t, root, ProjectFileName, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, want, findProjectConfig(nested))
	assert.Empty(t, findProjectConfig(t.TempDir()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero jobs is valid", func(c *Config) { c.Generate.Jobs = 0 }, false},
		{"negative jobs", func(c *Config) { c.Generate.Jobs = -1 }, true},
		{"empty marker", func(c *Config) { c.Markers.EndSpec = "" }, true},
		{"same markers", func(c *Config) { c.Markers.EndSpec = c.Markers.BeginSpec }, true},
		{"latin1 encoding", func(c *Config) { c.Generate.Encoding = "latin1" }, false},
		{"unknown encoding", func(c *Config) { c.Generate.Encoding = "klingon-8" }, true},
		{"nameless define", func(c *Config) { c.Defines = []string{"=1"} }, true},
		{"unknown theme", func(c *Config) { c.Log.Theme = "solarized" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidConfig), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDefines(t *testing.T) {
	defines, err := ParseDefines([]string{"BOARD=nucleo", "EMPTY", "EQ=a=b", "BOARD=disco"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"BOARD": "disco", "EMPTY": "", "EQ": "a=b"}, defines)
}

func TestSaveRotatesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "codegen.toml")

	for i := 1; i <= 5; i++ {
		cfg := Default()
		cfg.Generate.Jobs = i
		require.NoError(t, Save(cfg, path))
	}

	l, err := LoadLayers([]Layer{{Source: SourceProject, Path: path}})
	require.NoError(t, err)
	assert.Equal(t, 5, l.Generate.Jobs)

	for n, jobs := range map[string]int{".back1": 4, ".back2": 3, ".back3": 2} {
		b, err := LoadLayers([]Layer{{Source: SourceProject, Path: path + n}})
		require.NoError(t, err)
		assert.Equal(t, jobs, b.Generate.Jobs, n)
	}
	_, err = os.Stat(path + ".back4")
	assert.True(t, os.IsNotExist(err))
}

func TestMarshal(t *testing.T) {
	cfg := Default()

	data, err := Marshal(cfg, "yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "begin_spec:")
	assert.Contains(t, string(data), "@code{.codegen}")

	data, err = Marshal(cfg, "toml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "[generate]")

	_, err = Marshal(cfg, "ini")
	assert.True(t, errors.IsUsage(err))
}
