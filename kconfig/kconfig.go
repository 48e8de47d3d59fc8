// Package kconfig reads the configuration values produced by a Kconfig run.
//
// The store is loaded lazily on first lookup. A missing file yields an empty
// store and a warning, so templates that only consult defaults still work.
package kconfig

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/logger"
	"go.uber.org/zap"
)

var (
	setLine   = regexp.MustCompile(`^(CONFIG_[A-Za-z0-9_]+)=(.*)$`)
	unsetLine = regexp.MustCompile(`^#\s*(CONFIG_[A-Za-z0-9_]+) is not set`)
)

// Store holds configuration values keyed by symbol name (CONFIG_FOO).
type Store struct {
	path string
	log  *zap.SugaredLogger

	once   sync.Once
	values map[string]string
	unset  map[string]bool
}

// New returns a store that reads path on first use.
func New(path string) *Store {
	return &Store{path: path, log: logger.ComponentLogger("kconfig")}
}

// Parse reads a .config stream eagerly.
func Parse(r io.Reader) (*Store, error) {
	s := &Store{log: logger.ComponentLogger("kconfig")}
	if err := s.parse(r); err != nil {
		return nil, err
	}
	s.once.Do(func() {})
	return s, nil
}

func (s *Store) load() {
	s.once.Do(func() {
		s.values = map[string]string{}
		s.unset = map[string]bool{}
		if s.path == "" {
			return
		}
		f, err := os.Open(s.path)
		if err != nil {
			s.log.Warnw("configuration not available, using defaults",
				logger.FieldPath, s.path, logger.FieldError, err)
			return
		}
		defer f.Close()
		if err := s.parse(f); err != nil {
			s.log.Warnw("configuration partially read",
				logger.FieldPath, s.path, logger.FieldError, err)
		}
	})
}

func (s *Store) parse(r io.Reader) error {
	if s.values == nil {
		s.values = map[string]string{}
		s.unset = map[string]bool{}
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if m := unsetLine.FindStringSubmatch(line); m != nil {
			s.unset[m[1]] = true
			delete(s.values, m[1])
			continue
		}
		if m := setLine.FindStringSubmatch(line); m != nil {
			s.values[m[1]] = m[2]
			delete(s.unset, m[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read configuration")
	}
	return nil
}

// Lookup returns the raw value of a symbol. Symbols recorded as
// "is not set" are absent.
func (s *Store) Lookup(name string) (string, bool) {
	s.load()
	v, ok := s.values[name]
	return v, ok
}

// IsUnset reports a symbol explicitly recorded as not set.
func (s *Store) IsUnset(name string) bool {
	s.load()
	return s.unset[name]
}

// All returns a copy of every defined symbol.
func (s *Store) All() map[string]string {
	s.load()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Names returns the defined symbol names in sorted order.
func (s *Store) Names() []string {
	s.load()
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
