package sandbox

import (
	"fmt"
	"go/scanner"
	"regexp"
	"strconv"

	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/errors"
	"github.com/traefik/yaegi/interp"
)

var positionRe = regexp.MustCompile(`(?m)^(?:[^\s:]*:)?(\d+):(\d+): (.*)$`)

// compileError locates a compile failure of the snippet in frame.
func (ns *Namespace) compileError(frame *Frame, err error) *report.Error {
	line, msg := 0, err.Error()

	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		line, msg = list[0].Pos.Line, list[0].Msg
	} else if m := positionRe.FindStringSubmatch(msg); m != nil {
		line, _ = strconv.Atoi(m[1])
		msg = m[3]
	}

	return &report.Error{
		Kind:    report.KindCompile,
		File:    frame.InFile,
		Line:    frame.docLine(line),
		Snippet: frame.SnippetID(),
		Message: fmt.Sprintf("compile exception '%s' within snippet (%s %s:%d)", msg, frame.InFile, frame.SnippetID(), line),
		Listing: frame.listing(),
	}
}

// executionError locates a runtime failure at the last statement line
// the snippet reached. Errors raised by host capabilities are already
// located and pass through unchanged.
func (ns *Namespace) executionError(frame *Frame, err error) error {
	var cause error = err
	var p interp.Panic
	if errors.As(err, &p) {
		if re, ok := p.Value.(*report.Error); ok {
			return re
		}
		var isErr bool
		if cause, isErr = p.Value.(error); !isErr {
			cause = errors.Newf("%v", p.Value)
		}
	}

	re := ns.located(frame, 0, "", cause)
	if line := frame.line; line > 0 {
		re.Line = frame.docLine(line)
		re.Message = fmt.Sprintf("exception within snippet (%s %s:%d)", frame.InFile, frame.SnippetID(), line)
	} else {
		re.Message = fmt.Sprintf("exception within snippet (%s %s)", frame.InFile, frame.SnippetID())
	}
	return re
}

// located builds an execution error at lineOffset lines past the begin
// marker of frame. A nil frame yields an unlocated error.
func (ns *Namespace) located(frame *Frame, lineOffset int, msg string, cause error) *report.Error {
	re := &report.Error{Kind: report.KindExecution, Message: msg, Err: cause}
	if frame != nil {
		re.File = frame.InFile
		re.Line = frame.Offset + lineOffset
		re.Snippet = frame.SnippetID()
		re.Listing = frame.listing()
	}
	return re
}

// raise aborts the running snippet with an error located at the current
// frame.
func (ns *Namespace) raise(format string, args ...interface{}) {
	panic(ns.located(ns.stack.Top(), 0, fmt.Sprintf(format, args...), nil))
}

// raiseErr aborts the running snippet with cause attached.
func (ns *Namespace) raiseErr(cause error, format string, args ...interface{}) {
	if re, ok := report.As(cause); ok {
		panic(re)
	}
	panic(ns.located(ns.stack.Top(), 0, fmt.Sprintf(format, args...), cause))
}
