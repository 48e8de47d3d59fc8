package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teranos/codegen/config"
	"github.com/teranos/codegen/devicetree"
	"github.com/teranos/codegen/engine"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/engine/sandbox"
	"github.com/teranos/codegen/errors"
	"github.com/teranos/codegen/kconfig"
	"github.com/teranos/codegen/logger"
	"github.com/teranos/codegen/runner"
	"github.com/teranos/codegen/version"
)

type generateFlags struct {
	hashOutput   bool
	deleteCode   bool
	warnEmpty    bool
	unixNewlines bool
	eofCanBeEnd  bool
	replace      bool
	watch        bool
	jsonLog      bool
	includes     []string
	defines      []string
	encoding     string
	input        string
	output       string
	logFile      string
	configFile   string
	jobs         int
	verbosity    int
}

func bindGenerateFlags(cmd *cobra.Command) {
	f := &generateFlags{}
	fs := cmd.Flags()
	fs.BoolVarP(&f.hashOutput, "hash-output", "c", false, "Protect generated output with a checksum")
	fs.BoolVarP(&f.deleteCode, "delete-code", "d", false, "Delete generator code from the output")
	fs.BoolVarP(&f.warnEmpty, "warn-empty", "e", false, "Warn if a file contains no generator code")
	fs.BoolVarP(&f.unixNewlines, "unix-newlines", "U", false, "Write the output with Unix newlines")
	fs.BoolVar(&f.eofCanBeEnd, "eof-can-be-end", false, "Allow the end of file to close the last output region")
	fs.BoolVarP(&f.replace, "replace", "r", false, "Replace each input file with its output when it changed")
	fs.BoolVar(&f.watch, "watch", false, "Regenerate inputs whenever they change (needs -r or -o)")
	fs.BoolVar(&f.jsonLog, "json-log", false, "Log JSON records instead of console lines")
	fs.StringArrayVarP(&f.includes, "include", "I", nil, "Add a directory to the template and module search path (repeatable)")
	fs.StringArrayVarP(&f.defines, "define", "D", nil, "Define a global NAME=VALUE for snippets (repeatable)")
	fs.StringVarP(&f.encoding, "encoding", "n", "", "Encoding of input and output files (default UTF-8)")
	fs.StringVarP(&f.input, "input", "i", "", "Input file")
	fs.StringVarP(&f.output, "output", "o", "", "Write the output to FILE instead of stdout")
	fs.StringVarP(&f.logFile, "log", "l", "", "Append a JSON log to FILE")
	fs.StringVar(&f.configFile, "config", "", "Read configuration from FILE only")
	fs.IntVar(&f.jobs, "jobs", 0, "Number of files processed in parallel")
	fs.CountVarP(&f.verbosity, "verbose", "v", "Increase log verbosity (-v, -vv, -vvv)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, f, args)
	}
}

// apply overrides configuration values with the flags that were given.
func (f *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("hash-output") {
		cfg.Generate.HashOutput = f.hashOutput
	}
	if changed("delete-code") {
		cfg.Generate.DeleteCode = f.deleteCode
	}
	if changed("warn-empty") {
		cfg.Generate.WarnEmpty = f.warnEmpty
	}
	if changed("unix-newlines") {
		cfg.Generate.UnixNewlines = f.unixNewlines
	}
	if changed("eof-can-be-end") {
		cfg.Generate.EOFCanBeEnd = f.eofCanBeEnd
	}
	if changed("replace") {
		cfg.Generate.Replace = f.replace
	}
	if changed("encoding") {
		cfg.Generate.Encoding = f.encoding
	}
	if changed("jobs") {
		cfg.Generate.Jobs = f.jobs
	}
	if changed("json-log") {
		cfg.Log.JSON = f.jsonLog
	}
	if changed("log") {
		cfg.Log.File = f.logFile
	}
	// Command line entries come first and win
	cfg.Paths.Include = append(append([]string{}, f.includes...), cfg.Paths.Include...)
	cfg.Defines = append(cfg.Defines, f.defines...)
}

func runGenerate(cmd *cobra.Command, f *generateFlags, args []string) error {
	inputs := args
	if f.input != "" {
		inputs = append([]string{f.input}, inputs...)
	}
	if len(inputs) == 0 {
		return errors.WithHint(errors.NewUsageError("no input file given"), "run 'codegen --help' for usage")
	}
	loaded, err := config.Load(f.configFile)
	if err != nil {
		return errors.Mark(err, errors.ErrUsage)
	}
	cfg := loaded.Config
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return errors.Mark(err, errors.ErrUsage)
	}
	if f.watch && f.output == "" && !cfg.Generate.Replace {
		return errors.NewUsageError("--watch needs --replace or --output")
	}

	if err := logger.Initialize(logger.Options{
		JSON:      cfg.Log.JSON,
		Verbosity: f.verbosity,
		File:      cfg.Log.File,
		Theme:     cfg.Log.Theme,
	}); err != nil {
		return errors.Mark(err, errors.ErrUsage)
	}
	defer logger.Cleanup()

	ctx := cmd.Context()
	proc, err := newProcessor(ctx, cfg)
	if err != nil {
		return err
	}

	r := runner.New(proc, runner.Options{
		Output:   f.output,
		Replace:  cfg.Generate.Replace,
		Jobs:     cfg.Generate.Jobs,
		Encoding: cfg.Generate.Encoding,
		Stdout:   cmd.OutOrStdout(),
	})

	if f.watch {
		return watch(ctx, cmd, r, inputs)
	}

	sum, err := r.Run(ctx, inputs)
	if err != nil && sum != nil && len(inputs) > 1 {
		for _, fr := range sum.Failed() {
			fmt.Fprintln(cmd.ErrOrStderr(), report.Render(fr.Err, renderContext(cmd.ErrOrStderr())))
		}
	}
	return err
}

// newProcessor builds the engine with the providers the configuration names.
func newProcessor(ctx context.Context, cfg *config.Config) (*engine.Processor, error) {
	defines, err := config.ParseDefines(cfg.Defines)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrUsage)
	}

	opts := engine.Options{
		Markers:      cfg.Markers,
		HashOutput:   cfg.Generate.HashOutput,
		DeleteCode:   cfg.Generate.DeleteCode,
		WarnEmpty:    cfg.Generate.WarnEmpty,
		UnixNewlines: cfg.Generate.UnixNewlines,
		EOFCanBeEnd:  cfg.Generate.EOFCanBeEnd,
		Encoding:     cfg.Generate.Encoding,
		IncludePath:  append(append([]string{}, cfg.Paths.Include...), cfg.Paths.Modules...),
		Defines:      defines,
		Version:      version.Get(),
	}

	// Providers stay nil interfaces when not configured
	var cs sandbox.ConfigSource
	if cfg.Database.Kconfig != "" {
		cs = kconfig.New(cfg.Database.Kconfig)
	}
	opts.Config = cs

	var ps sandbox.PropertySource
	if cfg.Database.DTSConf != "" {
		ps = devicetree.NewFlat(cfg.Database.DTSConf)
	}
	opts.Properties = ps

	var ns sandbox.NodeSource
	if cfg.Database.EDTS != "" {
		path, err := devicetree.Fetch(ctx, cfg.Database.EDTS, cfg.Database.CacheDir)
		if err != nil {
			return nil, err
		}
		ns = devicetree.NewTree(path)
	}
	opts.Nodes = ns

	proc, err := engine.New(opts)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrUsage)
	}
	return proc, nil
}

func watch(ctx context.Context, cmd *cobra.Command, r *runner.Runner, inputs []string) error {
	// Generate once so the files are current before watching
	if _, err := r.Run(ctx, inputs); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), report.Render(err, renderContext(cmd.ErrOrStderr())))
	}

	w, err := runner.NewWatcher(r, inputs)
	if err != nil {
		return err
	}
	w.OnResult(func(fr runner.FileResult) {
		if fr.Err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), report.Render(fr.Err, renderContext(cmd.ErrOrStderr())))
		}
	})
	logger.Infow("watching for changes", logger.FieldCount, len(inputs))
	return w.Run(ctx)
}
