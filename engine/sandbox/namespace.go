// Package sandbox evaluates region snippets with an embedded Go interpreter.
//
// Snippets are Go statement lists that may also declare top-level funcs
// and types. All regions of one document, and any template it includes,
// share a Namespace: one interpreter whose globals persist from region to
// region. Host capabilities are reachable through the pre-imported
// package "codegen".
package sandbox

import (
	"fmt"
	"go/ast"
	"go/token"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/teranos/codegen/devicetree"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/engine/snippet"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/logger"
	"github.com/teranos/codegen/version"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// PackageName is the import name of the host capabilities.
const PackageName = "codegen"

// preludeImports are imported once per namespace. Snippets cannot
// import, so these are the packages they may use.
var preludeImports = []string{PackageName, "fmt", "sort", "strconv", "strings"}

func prelude() string {
	var b strings.Builder
	b.WriteString("import (\n")
	for _, p := range preludeImports {
		b.WriteString("\t" + strconv.Quote(p) + "\n")
	}
	b.WriteString(")")
	return b.String()
}

// Config configures a new Namespace.
type Config struct {
	// Defines are global strings; names that are Go identifiers become
	// package variables visible to every snippet.
	Defines map[string]string
	// Options are reported to snippets by codegen.Option.
	Options   map[string]string
	Providers Providers
	Version   version.Info
	// Stdout receives fmt.Print output of snippets. Defaults to os.Stderr
	// so it never mixes with generated text.
	Stdout io.Writer
	Logger *zap.SugaredLogger
}

// Namespace is the shared evaluation scope of one document.
type Namespace struct {
	interp    *interp.Interpreter
	stack     Stack
	providers Providers
	defines   map[string]string
	options   map[string]string
	version   version.Info
	log       *zap.SugaredLogger

	selection *devicetree.Selection
	guarded   map[string]bool
	modules   map[string]bool
	imports   map[string]string // package name to import path
}

// NewNamespace creates an interpreter with the codegen package and the
// defines installed.
func NewNamespace(cfg Config) (*Namespace, error) {
	ns := &Namespace{
		providers: cfg.Providers,
		defines:   copyMap(cfg.Defines),
		options:   copyMap(cfg.Options),
		version:   cfg.Version,
		log:       cfg.Logger,
		guarded:   map[string]bool{},
		modules:   map[string]bool{},
		imports:   map[string]string{},
	}
	if ns.log == nil {
		ns.log = logger.ComponentLogger("sandbox")
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stderr
	}

	// Panic traces of the interpreter go to the debug log
	stderr := &zapio.Writer{Log: ns.log.Desugar(), Level: zap.DebugLevel}
	ns.interp = interp.New(interp.Options{Stdout: stdout, Stderr: stderr})
	if err := ns.interp.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrap(err, "failed to load standard library symbols")
	}
	if err := ns.interp.Use(interp.Exports{PackageName + "/" + PackageName: ns.exports()}); err != nil {
		return nil, errors.Wrap(err, "failed to install codegen capabilities")
	}
	if _, err := ns.interp.Eval(prelude()); err != nil {
		return nil, errors.Wrap(err, "failed to import snippet prelude")
	}
	for _, p := range preludeImports {
		ns.imports[p] = p
	}

	names := make([]string, 0, len(ns.defines))
	for name := range ns.defines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, taken := ns.imports[name]; !token.IsIdentifier(name) || taken {
			continue
		}
		if _, err := ns.interp.Eval(fmt.Sprintf("var %s = %q", name, ns.defines[name])); err != nil {
			return nil, errors.Wrapf(err, "failed to define %s", name)
		}
	}
	return ns, nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Depth is the number of evaluations in progress.
func (ns *Namespace) Depth() int {
	return ns.stack.Depth()
}

// Evaluate runs the snippet of one region and returns its output,
// re-indented to the markers' indentation. The frame is current for the
// duration of the run and popped on every exit path.
//
// Top-level func and type declarations of the snippet are evaluated first
// as package declarations, so later regions may use them. The remaining
// statements run after a preamble line binding them to frame.
func (ns *Namespace) Evaluate(frame *Frame, sc *snippet.Context) (string, []report.Warning, error) {
	code, warnings := sc.Code()
	if strings.TrimSpace(code) == "" {
		return "", warnings, nil
	}

	frame.code = strings.Split(code, "\n")
	frame.lineNos = make([]int, len(frame.code))
	for i := range frame.code {
		frame.lineNos[i] = sc.LineNo(i)
	}
	frame.line = 0

	decls, stmts := splitDecls(code)
	var declFile *ast.File
	if strings.TrimSpace(decls) != "" {
		f, err := parseDecls(decls)
		if err != nil {
			return "", warnings, ns.compileError(frame, err)
		}
		declFile = f
	}

	// The preamble line shifts the statements by one
	frame.evalOffset = frame.Offset - 1
	defer func() { frame.evalOffset = frame.Offset }()

	src, stmtFile, err := instrument(fmt.Sprintf("%s.Bind(%d)\n%s\n", PackageName, frame.Offset, stmts))
	if err != nil {
		return "", warnings, ns.compileError(frame, err)
	}

	for _, name := range moduleImports(declFile, stmtFile) {
		if err := ns.loadModule(name); err != nil {
			if re, ok := report.As(err); ok {
				return "", warnings, re
			}
			return "", warnings, ns.located(frame, 0, "failed to import module", err)
		}
	}

	if declFile != nil {
		frame.evalOffset = frame.Offset
		if _, err := ns.interp.Eval("package main;" + decls); err != nil {
			return "", warnings, ns.compileError(frame, err)
		}
		frame.evalOffset = frame.Offset - 1
	}

	prog, err := ns.interp.Compile(src)
	if err != nil {
		return "", warnings, ns.compileError(frame, err)
	}

	release := ns.stack.Push(frame)
	defer release()

	ns.log.Debugw("evaluate",
		logger.FieldFile, frame.InFile,
		logger.FieldSnippet, frame.SnippetID(),
		logger.FieldDepth, ns.stack.Depth())

	frame.out.Reset()
	if _, err := ns.interp.Execute(prog); err != nil {
		return "", warnings, ns.executionError(frame, err)
	}

	out := frame.out.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	frame.Previous = snippet.Reindent(out, sc.WhitePrefix())
	return frame.Previous, warnings, nil
}
