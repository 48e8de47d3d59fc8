// Package engine drives region processing: it scans a document for spec
// regions, evaluates their snippets in a shared namespace and splices the
// generated text back between the markers.
package engine

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teranos/codegen/engine/marker"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/engine/sandbox"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/fileio"
	"github.com/teranos/codegen/logger"
	"github.com/teranos/codegen/version"
	"go.uber.org/zap"
)

// Options control how documents are processed.
type Options struct {
	Markers      marker.Markers
	HashOutput   bool // embed and verify output checksums
	DeleteCode   bool // drop spec lines and end markers from the output
	WarnEmpty    bool // warn about documents without regions
	UnixNewlines bool
	EOFCanBeEnd  bool // end of file may stand in for the end-output marker
	Encoding     string

	IncludePath []string
	Defines     map[string]string

	Config     sandbox.ConfigSource
	Properties sandbox.PropertySource
	Nodes      sandbox.NodeSource

	Version version.Info
	// Stdout receives fmt.Print output of snippets.
	Stdout io.Writer
}

// Result is the outcome of processing one document.
type Result struct {
	Input    string
	Output   string
	Regions  int // regions processed to completion
	Warnings []report.Warning
	Halted   bool // a snippet stopped generation
}

// Processor processes documents. It holds no per-document state and may
// be used from several goroutines; every call gets its own namespace.
type Processor struct {
	opts       Options
	classifier *marker.Classifier
	log        *zap.SugaredLogger
}

// New validates the options and returns a Processor.
func New(opts Options) (*Processor, error) {
	if opts.Markers == (marker.Markers{}) {
		opts.Markers = marker.Default()
	}
	cls, err := marker.New(opts.Markers)
	if err != nil {
		return nil, err
	}
	if _, err := fileio.LookupEncoding(opts.Encoding); err != nil {
		return nil, err
	}
	return &Processor{
		opts:       opts,
		classifier: cls,
		log:        logger.ComponentLogger("engine"),
	}, nil
}

// ProcessFile reads inFile and returns the document generated from it.
// outFile is reported to snippets and may equal inFile. Nothing is written.
func (p *Processor) ProcessFile(ctx context.Context, inFile, outFile string) (*Result, error) {
	text, err := fileio.ReadFile(inFile, p.opts.Encoding)
	if err != nil {
		return nil, &report.Error{Kind: report.KindUsage, File: inFile, Message: "cannot read input", Err: err}
	}
	return p.ProcessString(ctx, text, inFile, outFile)
}

// ProcessString processes text as the content of inFile.
func (p *Processor) ProcessString(ctx context.Context, text, inFile, outFile string) (*Result, error) {
	search := fileio.NewSearchPath(p.opts.IncludePath...)
	search.Add(filepath.Dir(inFile))

	root := &Result{Input: text}
	inc := &includer{p: p, ctx: ctx, search: search, outFile: outFile, root: root}
	ns, err := sandbox.NewNamespace(sandbox.Config{
		Defines: p.opts.Defines,
		Options: p.optionValues(inFile, outFile),
		Providers: sandbox.Providers{
			Config:     p.opts.Config,
			Properties: p.opts.Properties,
			Nodes:      p.opts.Nodes,
			Modules:    search,
			Includer:   inc,
		},
		Version: p.opts.Version,
		Stdout:  p.opts.Stdout,
		Logger:  p.log.Named("sandbox"),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to set up namespace for %s", inFile)
	}

	res, err := p.run(ctx, ns, text, inFile, outFile)
	if err != nil {
		return nil, err
	}
	root.Output = res.Output
	root.Regions = res.Regions
	root.Halted = res.Halted
	root.Warnings = append(res.Warnings, root.Warnings...)
	if p.opts.UnixNewlines {
		root.Output = fileio.NormalizeNewlines(root.Output)
	}
	return root, nil
}

// run processes one document, top level or included, in ns.
func (p *Processor) run(ctx context.Context, ns *sandbox.Namespace, text, inFile, outFile string) (*Result, error) {
	d := newDocument(ctx, p, ns, strings.NewReader(text), inFile, outFile)
	if err := d.process(); err != nil {
		return nil, err
	}
	return d.result, nil
}

// optionValues are the options visible to snippets through codegen.Option.
func (p *Processor) optionValues(inFile, outFile string) map[string]string {
	return map[string]string{
		"input":          inFile,
		"output":         outFile,
		"hash_output":    strconv.FormatBool(p.opts.HashOutput),
		"delete_code":    strconv.FormatBool(p.opts.DeleteCode),
		"warn_empty":     strconv.FormatBool(p.opts.WarnEmpty),
		"unix_newlines":  strconv.FormatBool(p.opts.UnixNewlines),
		"eof_can_be_end": strconv.FormatBool(p.opts.EOFCanBeEnd),
		"encoding":       p.opts.Encoding,
		"include_path":   strings.Join(p.opts.IncludePath, string(filepath.ListSeparator)),
	}
}
