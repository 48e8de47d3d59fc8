package sandbox

import (
	"go/scanner"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/codegen/errors"
)

func TestSplitDecls(t *testing.T) {
	code := strings.Join([]string{
		`x := 1`,
		`func double(n int) int {`,
		`	return 2 * n`,
		`}`,
		`type pin struct{ name string }`,
		`func (p pin) String() string { return p.name }`,
		`codegen.Outl(strconv.Itoa(double(x)))`,
		`f := func() {}`,
		`func() { f() }()`,
	}, "\n")

	decls, stmts := splitDecls(code)
	assert.Len(t, decls, len(code))
	assert.Len(t, stmts, len(code))
	assert.Equal(t, strings.Count(code, "\n"), strings.Count(decls, "\n"))
	assert.Equal(t, strings.Count(code, "\n"), strings.Count(stmts, "\n"))

	assert.Contains(t, decls, "func double(n int) int {\n\treturn 2 * n\n}")
	assert.Contains(t, decls, "type pin struct{ name string }")
	assert.Contains(t, decls, "func (p pin) String() string")
	assert.NotContains(t, decls, "x := 1")
	assert.NotContains(t, decls, "func() {}")

	assert.Contains(t, stmts, "x := 1")
	assert.Contains(t, stmts, "f := func() {}")
	assert.Contains(t, stmts, "func() { f() }()")
	assert.NotContains(t, stmts, "double(n int)")
	assert.NotContains(t, stmts, "type pin")

	_, err := parseDecls(decls)
	assert.NoError(t, err)
}

func TestSplitDeclsStatementsOnly(t *testing.T) {
	code := "for i := 0; i < 2; i++ {\n\tcodegen.Outl(\"x\")\n}"
	decls, stmts := splitDecls(code)
	assert.Empty(t, decls)
	assert.Equal(t, code, stmts)
}

func TestInstrument(t *testing.T) {
	src := strings.Join([]string{
		`codegen.Bind(3)`,
		`x := 1`,
		`for i := 0; i < 2; i++ {`,
		`	switch i {`,
		`	case 0:`,
		`		x++`,
		`	}`,
		`}`,
		`f := func() { x++ }`,
	}, "\n") + "\n"

	got, file, err := instrument(src)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, strings.Join([]string{
		`codegen.Bind(3)`,
		`codegen.Line(2); x := 1`,
		`codegen.Line(3); for i := 0; i < 2; i++ {`,
		`	codegen.Line(4); switch i {`,
		`	case 0:`,
		`		codegen.Line(6); x++`,
		`	}`,
		`}`,
		`codegen.Line(9); f := func() { x++ }`,
	}, "\n")+"\n", got)
}

func TestInstrumentSyntaxError(t *testing.T) {
	_, _, err := instrument("codegen.Bind(1)\ncodegen.Outl(\"x\"\n")
	require.Error(t, err)

	var list scanner.ErrorList
	require.True(t, errors.As(err, &list))
	assert.Equal(t, 2, list[0].Pos.Line)
}

func TestModuleImportsFromCalls(t *testing.T) {
	_, file, err := instrument(strings.Join([]string{
		`codegen.Bind(1)`,
		`// codegen.ImportModule("commented")`,
		`s := "codegen.ImportModule(\"quoted\")"`,
		`codegen.ImportModule("names")`,
		"if true { codegen.ImportModule(`raw`) }",
		`codegen.ImportModule(s)`,
		`other.ImportModule("wrong")`,
	}, "\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"names", "raw"}, moduleImports(nil, file))
}

func TestDropImported(t *testing.T) {
	src := strings.Join([]string{
		`package main`,
		``,
		`import "codegen"`,
		``,
		`import (`,
		`	"os"`,
		`	"strings"`,
		`	str "strings"`,
		`	_ "embed"`,
		`)`,
		``,
		`var _ = os.Args`,
	}, "\n")
	have := map[string]string{"codegen": "codegen", "strings": "strings"}

	out, added, err := dropImported("m.go", []byte(src), have)
	require.NoError(t, err)
	assert.Equal(t, strings.Count(src, "\n"), strings.Count(out, "\n"))
	assert.NotContains(t, out, `"codegen"`)
	assert.NotContains(t, out, "\t\"strings\"")
	assert.Contains(t, out, `"os"`)
	assert.Contains(t, out, `str "strings"`)
	assert.Contains(t, out, `_ "embed"`)
	assert.Contains(t, out, "var _ = os.Args")
	assert.Equal(t, map[string]string{"os": "os", "str": "strings"}, added)

	// Everything already imported leaves no import declaration
	out, added, err = dropImported("m.go", []byte("package main\n\nimport (\n\t\"codegen\"\n\t\"strings\"\n)\n"), have)
	require.NoError(t, err)
	assert.NotContains(t, out, "import")
	assert.Empty(t, added)

	_, _, err = dropImported("m.go", []byte("package main\nimport (\n"), have)
	assert.Error(t, err)
}
