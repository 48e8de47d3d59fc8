package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/logger"
	"gopkg.in/yaml.v3"
)

// Marshal renders c as "toml" or "yaml".
func Marshal(c *Config, format string) ([]byte, error) {
	switch format {
	case "", "toml":
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(c); err != nil {
			return nil, errors.Wrap(err, "failed to marshal config")
		}
		return buf.Bytes(), nil
	case "yaml":
		data, err := yaml.Marshal(c)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal config")
		}
		return data, nil
	default:
		return nil, errors.NewUsageError("unknown config format %q (toml or yaml)", format)
	}
}

// Save writes c as TOML to path, keeping up to three previous versions.
func Save(c *Config, path string) error {
	data, err := Marshal(c, "toml")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// createBackup rotates backups (.back1, .back2, .back3) before path is overwritten
func createBackup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	back3 := path + ".back3"
	back2 := path + ".back2"
	back1 := path + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnw("failed to delete old backup", logger.FieldPath, back3, logger.FieldError, err.Error())
	}
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}
