// Package commands implements the codegen command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/errors"
	"golang.org/x/term"
)

// FlagsEnv holds extra shell-quoted arguments for the generate command.
const FlagsEnv = "CODEGEN_FLAGS"

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1 // processing error
	ExitUsage   = 2 // invalid invocation
)

// NewRootCmd builds the codegen command tree. The root command generates.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "codegen [flags] [FILE...]",
		Short: "Generate code inline from snippets embedded in text files",
		Long: `codegen - Inline code generation.

Runs the Go snippets embedded between codegen markers in each FILE and
splices their output back into the document, directly after the snippet.

  /* @code{.codegen}
     codegen.Outl("int answer = 42;")
     @endcode{.codegen} */
  int answer = 42;
  /* @code{.codeins}@endcode */

Running codegen again over its own output produces the same document.
Extra flags may be given in the CODEGEN_FLAGS environment variable.

Examples:
  codegen -o board.h board.h.in       # Generate into a new file
  codegen -r -c src/*.c               # Regenerate in place, protect output
  codegen -D BOARD=nucleo -I tmpl x.c # Define a global, add include path
  codegen -r --watch drivers/uart.c   # Regenerate on change`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	bindGenerateFlags(root)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errors.Mark(err, errors.ErrUsage)
	})

	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)

	args, err := withEnvFlags(root, args)
	if err != nil {
		fmt.Fprintln(stderr, report.Render(err, renderContext(stderr)))
		return ExitUsage
	}
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, report.Render(err, renderContext(stderr)))
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(stderr, "hint: %s\n", hint)
		}
		if errors.IsUsage(err) {
			return ExitUsage
		}
		return ExitFailure
	}
	return ExitOK
}

// withEnvFlags appends the CODEGEN_FLAGS arguments when the root command
// is the one invoked.
func withEnvFlags(root *cobra.Command, args []string) ([]string, error) {
	env := os.Getenv(FlagsEnv)
	if env == "" {
		return args, nil
	}
	if cmd, _, err := root.Find(args); err == nil && cmd != root {
		return args, nil
	}
	extra, err := shellquote.Split(env)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "cannot parse %s", FlagsEnv), errors.ErrUsage)
	}
	return append(append([]string{}, args...), extra...), nil
}

// renderContext colours diagnostics only for terminals.
func renderContext(w io.Writer) report.Context {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return report.ContextTerminal
	}
	return report.ContextPlain
}
