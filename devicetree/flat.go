package devicetree

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/teranos/codegen/errors"
)

// Flat is the generated board configuration: one key=value pair per line,
// '#' starting a comment line.
type Flat struct {
	path string

	once  sync.Once
	props map[string]string
	err   error
}

// NewFlat returns a database that reads path on first use.
func NewFlat(path string) *Flat {
	return &Flat{path: path}
}

// ParseFlat reads a flat database eagerly.
func ParseFlat(r io.Reader) (*Flat, error) {
	props, err := parseFlat(r)
	if err != nil {
		return nil, err
	}
	f := &Flat{props: props}
	f.once.Do(func() {})
	return f, nil
}

func parseFlat(r io.Reader) (map[string]string, error) {
	props := map[string]string{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read device tree configuration")
	}
	return props, nil
}

func (f *Flat) load() error {
	f.once.Do(func() {
		if f.path == "" {
			f.err = errors.Wrap(errors.ErrInvalidConfig, "device tree board configuration not set")
			return
		}
		file, err := os.Open(f.path)
		if err != nil {
			f.err = errors.Wrapf(err, "Generated device tree board configuration '%s' not found/ no access.", f.path)
			return
		}
		defer file.Close()
		f.props, f.err = parseFlat(file)
	})
	return f.err
}

// Property returns the value of a property, or ErrPropertyNotFound.
func (f *Flat) Property(name string) (string, error) {
	if err := f.load(); err != nil {
		return "", err
	}
	v, ok := f.props[name]
	if !ok {
		return "", errors.Wrapf(ErrPropertyNotFound, "%s", name)
	}
	return v, nil
}

// Properties returns a copy of all properties.
func (f *Flat) Properties() (map[string]string, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(f.props))
	for k, v := range f.props {
		out[k] = v
	}
	return out, nil
}

// Names returns the property names in sorted order.
func (f *Flat) Names() ([]string, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(f.props))
	for k := range f.props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// ControllerCount returns SOC_<TYPE>_CONTROLLER_COUNT, 0 when absent.
func (f *Flat) ControllerCount(deviceType string) (int, error) {
	v, err := f.Property("SOC_" + deviceType + "_CONTROLLER_COUNT")
	if errors.Is(err, ErrPropertyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "controller count for %s", deviceType)
	}
	return n, nil
}

// ControllerPrefix returns SOC_<TYPE>_CONTROLLER_<idx>, the property
// prefix of one controller instance.
func (f *Flat) ControllerPrefix(deviceType string, idx int) (string, error) {
	return f.Property("SOC_" + deviceType + "_CONTROLLER_" + strconv.Itoa(idx))
}

// ControllerProperty returns <prefix>_<PROPERTY> for one controller instance.
func (f *Flat) ControllerProperty(deviceType string, idx int, property string) (string, error) {
	prefix, err := f.ControllerPrefix(deviceType, idx)
	if err != nil {
		return "", err
	}
	return f.Property(prefix + "_" + property)
}
