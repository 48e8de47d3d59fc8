// Package runner processes batches of documents and writes the results:
// to an explicit output file, back in place, or to standard output.
package runner

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/teranos/codegen/engine"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/fileio"
	"github.com/teranos/codegen/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options control where results go.
type Options struct {
	Output   string // explicit output file, single input only
	Replace  bool   // rewrite inputs in place when their content changed
	Jobs     int    // parallel documents, 0 means one
	Encoding string
	// Stdout receives generated documents when neither Output nor
	// Replace is set.
	Stdout io.Writer
}

// FileResult is the outcome for one input.
type FileResult struct {
	Path     string
	Changed  bool
	Result   *engine.Result
	Err      error
	Duration time.Duration
}

// Summary is the outcome of one run.
type Summary struct {
	RunID string
	Files []FileResult
}

// Failed returns the results that carry an error.
func (s *Summary) Failed() []FileResult {
	var failed []FileResult
	for _, f := range s.Files {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Runner applies a Processor to input files.
type Runner struct {
	proc *engine.Processor
	opts Options
	log  *zap.SugaredLogger

	// beforeWrite is called with each path about to be written
	beforeWrite func(path string)
}

// New creates a Runner.
func New(proc *engine.Processor, opts Options) *Runner {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	return &Runner{
		proc: proc,
		opts: opts,
		log:  logger.ComponentLogger("runner"),
	}
}

// Run processes inputs, up to Jobs at a time. A failing document does not
// stop the others; the returned error summarizes the failures.
func (r *Runner) Run(ctx context.Context, inputs []string) (*Summary, error) {
	if len(inputs) == 0 {
		return nil, errors.NewUsageError("no files to process")
	}
	if r.opts.Output != "" && len(inputs) > 1 {
		return nil, errors.NewUsageError("--output needs exactly one input, got %d", len(inputs))
	}

	sum := &Summary{RunID: uuid.NewString(), Files: make([]FileResult, len(inputs))}
	ctx = logger.WithRunID(ctx, sum.RunID)
	log := r.log.With(logger.FieldsFromContext(ctx)...)
	log.Debugw("run started", logger.FieldCount, len(inputs), logger.FieldJobs, r.opts.Jobs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)
	for i, path := range inputs {
		i, path := i, path
		g.Go(func() error {
			sum.Files[i] = r.processOne(gctx, log, path)
			return nil
		})
	}
	_ = g.Wait()

	// Standard output keeps input order
	if r.opts.Output == "" && !r.opts.Replace {
		for _, f := range sum.Files {
			if f.Err != nil {
				continue
			}
			if _, err := io.WriteString(r.opts.Stdout, f.Result.Output); err != nil {
				return sum, errors.Wrap(err, "failed to write output")
			}
		}
	}

	if failed := sum.Failed(); len(failed) > 0 {
		if len(inputs) == 1 {
			return sum, failed[0].Err
		}
		return sum, errors.Newf("%d of %d files failed", len(failed), len(inputs))
	}
	return sum, nil
}

// processOne generates one document and writes it where the options say.
func (r *Runner) processOne(ctx context.Context, log *zap.SugaredLogger, path string) FileResult {
	start := time.Now()
	fr := FileResult{Path: path}
	defer func() { fr.Duration = time.Since(start) }()

	outFile := path
	if r.opts.Output != "" {
		outFile = r.opts.Output
	}

	res, err := r.proc.ProcessFile(ctx, path, outFile)
	if err != nil {
		fr.Err = err
		fields := []interface{}{logger.FieldFile, path, logger.FieldError, err.Error()}
		if re, ok := report.As(err); ok {
			fields = append(fields, logger.FieldErrorKind, string(re.Kind), logger.FieldLine, re.Line)
		}
		log.Errorw("generation failed", fields...)
		return fr
	}
	fr.Result = res

	switch {
	case r.opts.Output != "":
		fr.Err = r.write(outFile, res.Output)
		fr.Changed = fr.Err == nil
	case r.opts.Replace && res.Output != res.Input:
		fr.Err = r.write(path, res.Output)
		fr.Changed = fr.Err == nil
	}
	if fr.Err != nil {
		log.Errorw("write failed", logger.FieldFile, outFile, logger.FieldError, fr.Err.Error())
		return fr
	}

	log.Infow("processed",
		logger.FieldFile, path,
		logger.FieldRegions, res.Regions,
		"changed", fr.Changed,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return fr
}

func (r *Runner) write(path, text string) error {
	if r.beforeWrite != nil {
		r.beforeWrite(path)
	}
	return fileio.WriteFile(path, text, r.opts.Encoding)
}
