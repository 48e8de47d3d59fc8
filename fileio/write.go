package fileio

import (
	"os"
	"path/filepath"

	"github.com/teranos/codegen/errors"
)

// WriteFile encodes text and replaces path atomically.
func WriteFile(path, text, enc string) error {
	data, err := Encode(text, enc)
	if err != nil {
		return err
	}
	return AtomicWrite(path, data)
}

// AtomicWrite writes data to a temporary file in the target directory and
// renames it over path. An existing file keeps its permissions. On failure
// the original file is left untouched.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	perm := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".codegen-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file in %s", dir)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to write %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to sync %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to close %s", tmpPath)
	}
	_ = os.Chmod(tmpPath, perm)

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
