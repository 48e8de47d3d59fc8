// Package marker classifies document lines by the region markers they contain.
//
// Markers are located by substring containment, so classification does not
// depend on the comment syntax or indentation around them.
package marker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/teranos/codegen/errors"
)

// Default marker tokens
const (
	DefaultBeginSpec = "@code{.codegen}"
	DefaultEndSpec   = "@endcode{.codegen}"
	DefaultEndOutput = "@code{.codeins}@endcode"
)

// trailer closes a block comment after a multi-line end-spec marker
const trailer = "*/"

// ErrInverted is returned by InlineCode when the end token precedes the begin token.
var ErrInverted = errors.New("codegen code markers inverted")

// Markers holds the three tokens delimiting a region.
type Markers struct {
	BeginSpec string `mapstructure:"begin_spec" toml:"begin_spec" yaml:"begin_spec"`
	EndSpec   string `mapstructure:"end_spec" toml:"end_spec" yaml:"end_spec"`
	EndOutput string `mapstructure:"end_output" toml:"end_output" yaml:"end_output"`
}

// Default returns the standard codegen markers.
func Default() Markers {
	return Markers{
		BeginSpec: DefaultBeginSpec,
		EndSpec:   DefaultEndSpec,
		EndOutput: DefaultEndOutput,
	}
}

// Validate rejects empty markers and markers that would shadow each other.
// An end-output token may contain the end-spec token.
func (m Markers) Validate() error {
	tokens := []struct{ name, value string }{
		{"begin_spec", m.BeginSpec},
		{"end_spec", m.EndSpec},
		{"end_output", m.EndOutput},
	}
	for _, t := range tokens {
		if strings.TrimSpace(t.value) == "" {
			return errors.Wrapf(errors.ErrInvalidConfig, "marker %s cannot be empty", t.name)
		}
	}
	for i, a := range tokens {
		for j, b := range tokens {
			if i == j || (a.name == "end_output" && b.name == "end_spec") {
				continue
			}
			if strings.Contains(a.value, b.value) {
				return errors.Wrapf(errors.ErrInvalidConfig,
					"marker %s %q contains marker %s %q", a.name, a.value, b.name, b.value)
			}
		}
	}
	return nil
}

// Classifier answers marker questions about single lines.
type Classifier struct {
	markers     Markers
	reEndOutput *regexp.Regexp
	endFormat   string
}

// New builds a Classifier for the given markers.
func New(m Markers) (*Classifier, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{
		markers:     m,
		reEndOutput: regexp.MustCompile(regexp.QuoteMeta(m.EndOutput) + `(?P<hashsect> *\(checksum: (?P<hash>[a-f0-9]+)\))`),
		endFormat:   m.EndOutput + " (checksum: %s)",
	}, nil
}

// Markers returns the tokens the classifier was built with.
func (c *Classifier) Markers() Markers { return c.markers }

func (c *Classifier) IsBeginSpec(line string) bool {
	return strings.Contains(line, c.markers.BeginSpec)
}

// IsEndSpec reports an end-spec token on a line that is not an end-output line.
func (c *Classifier) IsEndSpec(line string) bool {
	return strings.Contains(line, c.markers.EndSpec) && !c.IsEndOutput(line)
}

func (c *Classifier) IsEndOutput(line string) bool {
	return strings.Contains(line, c.markers.EndOutput)
}

// IsSingleLineSpec reports a line holding both the begin and the end token.
func (c *Classifier) IsSingleLineSpec(line string) bool {
	return c.IsBeginSpec(line) && c.IsEndSpec(line)
}

// IsEndSpecTrailer reports a comment closer following a multi-line end-spec.
func (c *Classifier) IsEndSpecTrailer(line string) bool {
	return strings.Contains(line, trailer) && !c.IsEndOutput(line)
}

// InlineCode extracts the code between the begin and end tokens of a
// single-line spec.
func (c *Classifier) InlineCode(line string) (string, error) {
	beg := strings.Index(line, c.markers.BeginSpec)
	end := strings.Index(line, c.markers.EndSpec)
	if beg < 0 || end < 0 {
		return "", errors.Newf("not a single-line spec: %q", strings.TrimRight(line, "\r\n"))
	}
	if beg > end {
		return "", ErrInverted
	}
	return strings.TrimSpace(line[beg+len(c.markers.BeginSpec) : end]), nil
}

// Checksum returns the checksum embedded in an end-output line.
func (c *Classifier) Checksum(line string) (string, bool) {
	m := c.reEndOutput.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[c.reEndOutput.SubexpIndex("hash")], true
}

// WithChecksum writes sum into an end-output line, replacing any existing checksum.
func (c *Classifier) WithChecksum(line, sum string) string {
	end := fmt.Sprintf(c.endFormat, sum)
	if m := c.reEndOutput.FindString(line); m != "" {
		return strings.Replace(line, m, end, 1)
	}
	return strings.Replace(line, c.markers.EndOutput, end, 1)
}

// StripChecksum removes an embedded checksum from an end-output line.
func (c *Classifier) StripChecksum(line string) string {
	m := c.reEndOutput.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	return strings.Replace(line, m[c.reEndOutput.SubexpIndex("hashsect")], "", 1)
}
