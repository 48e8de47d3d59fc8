package engine

import (
	"context"
	"io"
	"strings"

	"github.com/teranos/codegen/engine/checksum"
	"github.com/teranos/codegen/engine/linereader"
	"github.com/teranos/codegen/engine/marker"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/engine/sandbox"
	"github.com/teranos/codegen/engine/snippet"
	"github.com/teranos/codegen/logger"
	"go.uber.org/zap"
)

type state int

const (
	scanning state = iota // copying pass-through lines
	inSpec                // accumulating a multi-line spec body
	inOutput              // consuming the previously generated output
	emitting              // writing the new output and the end marker
	done
)

// document is the processing state of one pass over one input.
type document struct {
	ctx     context.Context
	opts    *Options
	cls     *marker.Classifier
	ns      *sandbox.Namespace
	log     *zap.SugaredLogger
	in      *linereader.Reader
	inFile  string
	outFile string

	out    strings.Builder
	line   string // lookahead, "" at end of stream
	halt   sandbox.Halt
	result *Result

	// current region
	first    int
	sc       *snippet.Context
	previous strings.Builder
	oldSum   string
}

func newDocument(ctx context.Context, p *Processor, ns *sandbox.Namespace, r io.Reader, inFile, outFile string) *document {
	return &document{
		ctx:     ctx,
		opts:    &p.opts,
		cls:     p.classifier,
		ns:      ns,
		log:     p.log,
		in:      linereader.New(r),
		inFile:  inFile,
		outFile: outFile,
		result:  &Result{},
	}
}

func (d *document) advance() error {
	line, err := d.in.ReadLine()
	if err != nil {
		return err
	}
	d.line = line
	return nil
}

func (d *document) write(s string) { d.out.WriteString(s) }

// keep writes a spec or marker line unless generator code is deleted.
func (d *document) keep(s string) {
	if !d.opts.DeleteCode {
		d.write(s)
	}
}

func (d *document) malformed(line int, format string, args ...interface{}) error {
	return report.New(report.KindMalformedRegion, d.inFile, line, format, args...)
}

// process runs the state machine to the end of the document.
func (d *document) process() error {
	if err := d.advance(); err != nil {
		return err
	}

	var err error
	for st := scanning; st != done && err == nil; {
		switch st {
		case scanning:
			st, err = d.scan()
		case inSpec:
			st, err = d.readSpec()
		case inOutput:
			st, err = d.readOutput()
		case emitting:
			st, err = d.emit()
		}
	}
	if err != nil {
		return err
	}

	if d.halt.Stopped() {
		d.result.Halted = true
		for d.line != "" {
			d.write(d.line)
			if err := d.advance(); err != nil {
				return err
			}
		}
	}

	if d.result.Regions == 0 && d.opts.WarnEmpty {
		w := report.Warning{
			Kind:    report.WarningEmptyFile,
			File:    d.inFile,
			Message: "no codegen code found in " + d.inFile,
		}
		d.log.Warnw(w.Message, logger.FieldFile, d.inFile, logger.FieldRegions, 0)
		d.result.Warnings = append(d.result.Warnings, w)
	}
	d.result.Output = d.out.String()
	return nil
}

// scan copies pass-through lines up to the next begin marker.
func (d *document) scan() (state, error) {
	if d.halt.Stopped() {
		return done, nil
	}
	if err := d.ctx.Err(); err != nil {
		return done, err
	}

	for d.line != "" && !d.cls.IsBeginSpec(d.line) {
		n := d.in.LineNumber()
		if d.cls.IsEndSpec(d.line) {
			return done, d.malformed(n, "Unexpected '%s'", d.cls.Markers().EndSpec)
		}
		if d.cls.IsEndOutput(d.line) {
			return done, d.malformed(n, "Unexpected '%s'", d.cls.Markers().EndOutput)
		}
		d.write(d.line)
		if err := d.advance(); err != nil {
			return done, err
		}
	}
	if d.line == "" {
		return done, nil
	}

	d.keep(d.line)
	d.first = d.in.LineNumber()
	d.sc = snippet.New(d.inFile, d.first)
	d.sc.AddMarker(d.line)
	d.previous.Reset()
	d.log.Debugf("s%d: process %s #%d", d.ns.Depth(), d.inFile, d.first)

	if !d.cls.IsSingleLineSpec(d.line) {
		return inSpec, d.advance()
	}

	code, err := d.cls.InlineCode(d.line)
	if err != nil {
		return done, d.malformed(d.first, "Codegen code markers inverted")
	}
	d.sc.AddLine(code, d.first)
	return inOutput, d.advance()
}

// readSpec accumulates the body of a multi-line spec.
func (d *document) readSpec() (state, error) {
	m := d.cls.Markers()
	for d.line != "" && !d.cls.IsEndSpec(d.line) {
		n := d.in.LineNumber()
		if d.cls.IsBeginSpec(d.line) {
			return done, d.malformed(n, "Code followed by unexpected '%s'", m.BeginSpec)
		}
		if d.cls.IsEndOutput(d.line) {
			return done, d.malformed(n, "Code followed by unexpected '%s'", m.EndOutput)
		}
		d.sc.AddLine(d.line, n)
		d.keep(d.line)
		if err := d.advance(); err != nil {
			return done, err
		}
	}
	if d.line == "" {
		return done, d.malformed(d.first, "Codegen block begun but never ended.")
	}

	d.keep(d.line)
	d.sc.AddMarker(d.line)
	if err := d.advance(); err != nil {
		return done, err
	}
	if d.cls.IsEndSpecTrailer(d.line) {
		d.write(d.line)
		if err := d.advance(); err != nil {
			return done, err
		}
	}
	return inOutput, nil
}

// readOutput consumes the old output up to the end-output marker, hashing
// it on the way.
func (d *document) readOutput() (state, error) {
	m := d.cls.Markers()
	h := checksum.New()
	for d.line != "" && !d.cls.IsEndOutput(d.line) {
		n := d.in.LineNumber()
		if d.cls.IsBeginSpec(d.line) {
			return done, d.malformed(n, "Unexpected '%s'", m.BeginSpec)
		}
		if d.cls.IsEndSpec(d.line) {
			return done, d.malformed(n, "Unexpected '%s'", m.EndSpec)
		}
		h.WriteString(d.line)
		d.previous.WriteString(d.line)
		if err := d.advance(); err != nil {
			return done, err
		}
	}
	d.oldSum = h.Sum()

	if d.line == "" && !d.opts.EOFCanBeEnd {
		return done, d.malformed(d.in.LineNumber(), "Missing '%s' before end of file.", m.EndOutput)
	}
	return emitting, nil
}

// emit evaluates the snippet and writes the new output and end marker.
func (d *document) emit() (state, error) {
	// Protected output edited by hand is never overwritten
	if d.opts.HashOutput && d.line != "" {
		if sum, ok := d.cls.Checksum(d.line); ok && sum != d.oldSum {
			return done, report.New(report.KindTamperDetected, d.inFile, d.in.LineNumber(),
				"Output has been edited! Delete old checksum to unprotect.")
		}
	}

	frame := sandbox.NewFrame(d.inFile, d.outFile, d.first, &d.halt)
	frame.Previous = d.previous.String()
	gen, warnings, err := d.ns.Evaluate(frame, d.sc)
	for _, w := range warnings {
		d.log.Warnw(w.Message, logger.FieldFile, w.File, logger.FieldLine, w.Line)
	}
	d.result.Warnings = append(d.result.Warnings, warnings...)
	if err != nil {
		return done, err
	}
	d.write(gen)

	if d.line != "" {
		end := d.cls.StripChecksum(d.line)
		if d.opts.HashOutput {
			end = d.cls.WithChecksum(d.line, checksum.String(gen))
		}
		d.keep(end)
		if err := d.advance(); err != nil {
			return done, err
		}
	}

	// A halting region is finished but not counted
	if !d.halt.Stopped() {
		d.result.Regions++
	}
	d.sc = nil
	return scanning, nil
}
