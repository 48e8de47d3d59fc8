package config

import (
	"github.com/teranos/codegen/engine/marker"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/fileio"
)

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if _, err := marker.New(c.Markers); err != nil {
		return errors.Wrap(err, "markers")
	}

	// Jobs: 0 = one at a time, negative = invalid
	if c.Generate.Jobs < 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "generate.jobs must be >= 0, got %d", c.Generate.Jobs)
	}

	if _, err := fileio.LookupEncoding(c.Generate.Encoding); err != nil {
		return errors.Mark(errors.Wrap(err, "generate.encoding"), errors.ErrInvalidConfig)
	}

	if _, err := ParseDefines(c.Defines); err != nil {
		return err
	}

	switch c.Log.Theme {
	case "", "everforest", "gruvbox":
	default:
		return errors.Wrapf(errors.ErrInvalidConfig, "log.theme must be everforest or gruvbox, got %q", c.Log.Theme)
	}

	return nil
}
