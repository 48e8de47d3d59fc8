package engine

import (
	"context"
	"path/filepath"

	"github.com/teranos/codegen/engine/sandbox"
	"github.com/teranos/codegen/fileio"
	"github.com/teranos/codegen/logger"
)

// includer runs nested generation of template files for one top-level
// document. Templates share the document's namespace but halt on their own.
type includer struct {
	p       *Processor
	ctx     context.Context
	search  *fileio.SearchPath
	outFile string
	root    *Result
}

// Include processes the template name, found on the include path, and
// returns its generated text.
func (inc *includer) Include(ns *sandbox.Namespace, name string) (string, error) {
	path, err := inc.search.Find(name)
	if err != nil {
		return "", err
	}
	text, err := fileio.ReadFile(path, inc.p.opts.Encoding)
	if err != nil {
		return "", err
	}

	inc.search.Save()
	inc.search.Add(filepath.Dir(path))
	defer inc.search.Restore()

	inc.p.log.Debugw("include",
		logger.FieldSource, name,
		logger.FieldPath, path,
		logger.FieldDepth, ns.Depth())

	res, err := inc.p.run(inc.ctx, ns, text, path, inc.outFile)
	if err != nil {
		return "", err
	}
	inc.root.Warnings = append(inc.root.Warnings, res.Warnings...)
	return res.Output, nil
}
