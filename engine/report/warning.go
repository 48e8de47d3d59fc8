package report

import (
	"fmt"
	"strings"
)

// WarningKind categorizes non-fatal diagnostics
type WarningKind string

const (
	WarningPrefixHeuristic WarningKind = "prefix-heuristic" // Comment prefix was guessed or given up on
	WarningEmptyFile       WarningKind = "empty-file"       // Document contained no regions
)

// Warning is a non-fatal diagnostic collected while processing a document.
type Warning struct {
	Kind    WarningKind
	File    string
	Line    int
	Message string
	Listing []string
}

func (w Warning) String() string {
	var sb strings.Builder
	if w.File != "" {
		sb.WriteString(w.File)
		if w.Line > 0 {
			fmt.Fprintf(&sb, ":%d", w.Line)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(w.Message)
	for _, l := range w.Listing {
		sb.WriteString("\n")
		sb.WriteString(l)
	}
	return sb.String()
}
