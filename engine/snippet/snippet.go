// Package snippet accumulates the lines of one spec region and derives the
// executable code from them.
package snippet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/teranos/codegen/engine/report"
)

// cLikeExtensions enable comment prefix guessing when markers and body
// share no literal prefix.
var cLikeExtensions = map[string]bool{
	".h": true, ".hxx": true, ".c": true, ".cpp": true, ".cxx": true,
}

// listingContext is the number of lines shown around a line missing its prefix.
const listingContext = 5

// Context holds the markers and body of one region.
type Context struct {
	file    string
	offset  int
	markers []string
	lines   []string
	lineNos []int
}

// New starts a context for the spec beginning at document line offset.
func New(file string, offset int) *Context {
	return &Context{file: file, offset: offset}
}

// File is the input document the spec belongs to.
func (c *Context) File() string { return c.file }

// Offset is the document line of the begin marker.
func (c *Context) Offset() int { return c.offset }

// ID is the snippet id used in diagnostics.
func (c *Context) ID() string { return fmt.Sprintf("+%d", c.offset) }

// AddMarker records a begin or end marker line.
func (c *Context) AddMarker(line string) {
	c.markers = append(c.markers, line)
}

// AddLine records a body line found at document line lineNo.
func (c *Context) AddLine(line string, lineNo int) {
	c.lines = append(c.lines, strings.TrimRight(line, "\r\n"))
	c.lineNos = append(c.lineNos, lineNo)
}

// Lines returns the body lines as recorded.
func (c *Context) Lines() []string { return c.lines }

// LineNo returns the document line of body line i, or 0 when out of range.
func (c *Context) LineNo(i int) int {
	if i < 0 || i >= len(c.lineNos) {
		return 0
	}
	return c.lineNos[i]
}

// WhitePrefix returns the indentation shared by the markers, used to
// re-indent generated output.
func (c *Context) WhitePrefix() string {
	return WhitePrefix(c.markers)
}

// Code strips the common comment prefix from markers and body and returns
// the de-indented body, one line per body line. Prefix guesses are
// reported as warnings.
func (c *Context) Code() (string, []report.Warning) {
	all := append(append([]string{}, c.markers...), c.lines...)
	prefix := CommonPrefix(all)

	// Single-line specs carry one marker and never need a guess
	var warnings []report.Warning
	if prefix == "" && len(c.markers) > 1 && cLikeExtensions[strings.ToLower(filepath.Ext(c.file))] {
		prefix, warnings = c.guessPrefix(all)
	}

	body := c.lines
	if prefix != "" {
		body = make([]string, len(c.lines))
		for i, l := range c.lines {
			body[i] = strings.TrimPrefix(l, prefix)
		}
	}
	return ReindentBlock(body, ""), warnings
}

// guessPrefix assumes C or C++ comment continuation and keeps the guess
// only when at least half of the body lines carry it.
func (c *Context) guessPrefix(all []string) (string, []report.Warning) {
	guess := ""
	for _, l := range all {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "*") {
			guess = "*"
		} else if strings.HasPrefix(t, "//") {
			guess = "//"
			break
		}
	}
	if guess == "" {
		return "", nil
	}

	var warnings []report.Warning
	var matching []string
	for i, l := range c.lines {
		if strings.HasPrefix(strings.TrimSpace(l), guess) {
			matching = append(matching, l)
			continue
		}
		warnings = append(warnings, report.Warning{
			Kind:    report.WarningPrefixHeuristic,
			File:    c.file,
			Line:    c.LineNo(i),
			Message: fmt.Sprintf("Comment prefix may miss in codegen snippet (%s) in '%s'.", c.ID(), c.file),
			Listing: c.listAround(i),
		})
	}

	if len(matching) < len(c.lines)/2 {
		warnings = append(warnings, report.Warning{
			Kind:    report.WarningPrefixHeuristic,
			File:    c.file,
			Line:    c.offset,
			Message: fmt.Sprintf("Giving up on comment prefix '%s' for codegen snippet (%s) in '%s'.", guess, c.ID(), c.file),
		})
		return "", warnings
	}

	prefix := CommonPrefix(matching)
	warnings = append(warnings, report.Warning{
		Kind:    report.WarningPrefixHeuristic,
		File:    c.file,
		Line:    c.offset,
		Message: fmt.Sprintf("Assuming comment prefix '%s' for codegen snippet (%s) in '%s'.", prefix, c.ID(), c.file),
	})
	return prefix, warnings
}

func (c *Context) listAround(i int) []string {
	start := i - listingContext
	if start < 0 {
		start = 0
	}
	end := i + listingContext
	if end > len(c.lines) {
		end = len(c.lines)
	}
	var out []string
	for j := start; j < end; j++ {
		out = append(out, report.ListingLine(c.LineNo(j), c.ID(), j+2, c.lines[j]))
	}
	return out
}
