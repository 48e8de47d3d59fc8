package fileio

import (
	"os"
	"path/filepath"

	"github.com/teranos/codegen/errors"
)

// SearchPath is an ordered list of directories for data files, templates
// and modules. Save and Restore bracket temporary additions.
type SearchPath struct {
	dirs  []string
	saved [][]string
}

// NewSearchPath returns a search path over dirs.
func NewSearchPath(dirs ...string) *SearchPath {
	s := &SearchPath{}
	s.Add(dirs...)
	return s
}

// Add appends directories not already present.
func (s *SearchPath) Add(dirs ...string) {
	for _, d := range dirs {
		if d == "" {
			d = "."
		}
		if !s.contains(d) {
			s.dirs = append(s.dirs, d)
		}
	}
}

func (s *SearchPath) contains(dir string) bool {
	for _, d := range s.dirs {
		if d == dir {
			return true
		}
	}
	return false
}

// Dirs returns a copy of the directories in search order.
func (s *SearchPath) Dirs() []string {
	return append([]string(nil), s.dirs...)
}

// Save pushes the current directory list.
func (s *SearchPath) Save() {
	s.saved = append(s.saved, s.Dirs())
}

// Restore pops the list pushed by the matching Save.
func (s *SearchPath) Restore() {
	if n := len(s.saved); n > 0 {
		s.dirs = s.saved[n-1]
		s.saved = s.saved[:n-1]
	}
}

// Find resolves name to an existing file. Absolute names are checked as
// is; relative names are tried against each directory in order.
func (s *SearchPath) Find(name string) (string, error) {
	if filepath.IsAbs(name) {
		if isFile(name) {
			return name, nil
		}
		return "", errors.NewNotFoundError("file %s not found", name)
	}
	for _, d := range s.dirs {
		p := filepath.Join(d, name)
		if isFile(p) {
			return p, nil
		}
	}
	return "", errors.NewNotFoundError("file %s not found in %v", name, s.dirs)
}

// FindModule resolves a module name to <dir>/modules/<name>.go or <dir>/<name>.go.
func (s *SearchPath) FindModule(name string) (string, error) {
	file := name + ".go"
	for _, d := range s.dirs {
		for _, p := range []string{filepath.Join(d, "modules", file), filepath.Join(d, file)} {
			if isFile(p) {
				return p, nil
			}
		}
	}
	return "", errors.NewNotFoundError("module %s not found in %v", name, s.dirs)
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
