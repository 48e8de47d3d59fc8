package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/codegen/engine"
	"github.com/teranos/codegen/engine/report"
	"github.com/teranos/codegen/errors"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func doc(value string) string {
	return lines(
		"head",
		"// @code{.codegen}",
		`// codegen.Outl("`+value+`")`,
		"// @endcode{.codegen}",
		"// @code{.codeins}@endcode",
		"tail",
	)
}

func generated(value string) string {
	return lines(
		"head",
		"// @code{.codegen}",
		`// codegen.Outl("`+value+`")`,
		"// @endcode{.codegen}",
		value,
		"// @code{.codeins}@endcode",
		"tail",
	)
}

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	proc, err := engine.New(engine.Options{})
	require.NoError(t, err)
	return New(proc, opts)
}

func TestRunWritesStdoutInInputOrder(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, v := range []string{"a", "b", "c", "d"} {
		inputs = append(inputs, writeFile(t, dir, v+".c", doc(v)))
	}

	var out bytes.Buffer
	r := newRunner(t, Options{Jobs: 3, Stdout: &out})

	sum, err := r.Run(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, sum.Files, 4)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, generated("a")+generated("b")+generated("c")+generated("d"), out.String())
	for i, f := range sum.Files {
		assert.Equal(t, inputs[i], f.Path)
		assert.False(t, f.Changed)
		assert.Equal(t, 1, f.Result.Regions)
	}
	// Inputs are untouched
	assert.Equal(t, doc("a"), readFile(t, inputs[0]))
}

func TestRunOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.c", doc("x"))
	outPath := filepath.Join(dir, "out.c")

	var out bytes.Buffer
	r := newRunner(t, Options{Output: outPath, Stdout: &out})

	sum, err := r.Run(context.Background(), []string{in})
	require.NoError(t, err)
	assert.True(t, sum.Files[0].Changed)
	assert.Equal(t, generated("x"), readFile(t, outPath))
	assert.Empty(t, out.String())
}

func TestRunOutputFileRequiresSingleInput(t *testing.T) {
	r := newRunner(t, Options{Output: "out.c"})

	_, err := r.Run(context.Background(), []string{"a.c", "b.c"})
	require.Error(t, err)
	assert.True(t, errors.IsUsage(err))

	_, err = r.Run(context.Background(), nil)
	assert.True(t, errors.IsUsage(err))
}

func TestRunReplaceOnlyWhenChanged(t *testing.T) {
	dir := t.TempDir()
	stale := writeFile(t, dir, "stale.c", doc("s"))
	fresh := writeFile(t, dir, "fresh.c", generated("f"))

	var written []string
	r := newRunner(t, Options{Replace: true, Jobs: 1})
	r.beforeWrite = func(path string) { written = append(written, path) }

	sum, err := r.Run(context.Background(), []string{stale, fresh})
	require.NoError(t, err)
	assert.True(t, sum.Files[0].Changed)
	assert.False(t, sum.Files[1].Changed)
	assert.Equal(t, []string{stale}, written)
	assert.Equal(t, generated("s"), readFile(t, stale))
	assert.Equal(t, generated("f"), readFile(t, fresh))
}

func TestRunContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.c", doc("g"))
	bad := writeFile(t, dir, "bad.c", lines(
		"// @code{.codegen}",
		"// codegen.Outl(missing)",
		"// @endcode{.codegen}",
		"// @code{.codeins}@endcode",
	))

	var out bytes.Buffer
	r := newRunner(t, Options{Jobs: 2, Stdout: &out})

	sum, err := r.Run(context.Background(), []string{bad, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	require.Len(t, sum.Failed(), 1)

	failed := sum.Failed()[0]
	assert.Equal(t, bad, failed.Path)
	re, ok := report.As(failed.Err)
	require.True(t, ok)
	assert.Equal(t, report.KindCompile, re.Kind)
	assert.Equal(t, generated("g"), out.String())
}

func TestRunSingleFailureReturnsReport(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.c", lines("// @endcode{.codegen}"))

	r := newRunner(t, Options{Stdout: &bytes.Buffer{}})

	_, err := r.Run(context.Background(), []string{bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedRegion))
}

func TestRunMissingInput(t *testing.T) {
	r := newRunner(t, Options{Stdout: &bytes.Buffer{}})

	_, err := r.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.c")})
	require.Error(t, err)
	assert.True(t, errors.IsUsage(err))
}
