// Package report defines the located errors and warnings produced while
// generating a document.
package report

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/teranos/codegen/errors"
)

// Kind categorizes a generation error for programmatic handling
type Kind string

const (
	KindUsage           Kind = "usage"            // Invocation without usable input
	KindMalformedRegion Kind = "malformed-region" // Stray, nested or unterminated markers
	KindCompile         Kind = "compile"          // Snippet does not compile
	KindExecution       Kind = "execution"        // Snippet failed while running
	KindTamperDetected  Kind = "tamper-detected"  // Protected output edited by hand
)

// Sentinel returns the errors package sentinel matching the kind.
func (k Kind) Sentinel() error {
	switch k {
	case KindUsage:
		return errors.ErrUsage
	case KindMalformedRegion:
		return errors.ErrMalformedRegion
	case KindCompile:
		return errors.ErrCompile
	case KindExecution:
		return errors.ErrExecution
	case KindTamperDetected:
		return errors.ErrTamperDetected
	default:
		return nil
	}
}

// Context selects how an error is rendered
type Context int

const (
	ContextPlain    Context = iota // Logs and files
	ContextTerminal                // Colored terminal output
)

// Error is a generation failure located in an input document.
type Error struct {
	Kind    Kind
	File    string   // Input document
	Line    int      // 1-based document line, 0 when unknown
	Snippet string   // Snippet id such as "+12", empty outside a snippet
	Message string   // Human-readable message
	Listing []string // Snippet source lines prefixed with their document line
	Err     error    // Underlying cause, if any
}

// Error implements the error interface with the plain rendering.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&sb, ":%d", e.Line)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Err != nil {
		if e.Message != "" {
			sb.WriteString(": ")
		}
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// Format renders the error for the given context.
func (e *Error) Format(ctx Context) string {
	if ctx == ContextPlain {
		out := e.Error()
		if len(e.Listing) > 0 {
			out += "\n" + strings.Join(e.Listing, "\n")
		}
		return out
	}

	var sb strings.Builder
	sb.WriteString(pterm.Red(string(e.Kind)))
	sb.WriteString(" ")
	if e.File != "" {
		loc := e.File
		if e.Line > 0 {
			loc = fmt.Sprintf("%s:%d", e.File, e.Line)
		}
		sb.WriteString(pterm.LightCyan(loc))
		sb.WriteString(" ")
	}
	if e.Snippet != "" {
		sb.WriteString(pterm.Yellow("(" + e.Snippet + ")"))
		sb.WriteString(" ")
	}
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	sb.WriteString(msg)
	for _, line := range e.Listing {
		sb.WriteString("\n  ")
		sb.WriteString(pterm.Gray(line))
	}
	return sb.String()
}

// New creates a located error of the given kind.
func New(kind Kind, file string, line int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// Render formats any error, using the rich form for *Error values.
func Render(err error, ctx Context) string {
	if re, ok := As(err); ok {
		return re.Format(ctx)
	}
	if ctx == ContextTerminal {
		return pterm.Red(err.Error())
	}
	return err.Error()
}

// ListingLine formats one snippet source line for a listing.
func ListingLine(docLine int, snippetID string, line int, text string) string {
	return fmt.Sprintf("#%d (%s, line %d): %s", docLine, snippetID, line, text)
}
