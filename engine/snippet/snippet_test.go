package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/codegen/engine/report"
)

func build(file string, offset int, begin string, body []string, end string) *Context {
	c := New(file, offset)
	c.AddMarker(begin)
	for i, l := range body {
		c.AddLine(l+"\n", offset+1+i)
	}
	c.AddMarker(end)
	return c
}

func TestWhitePrefix(t *testing.T) {
	assert.Equal(t, "  ", WhitePrefix([]string{"    a", "", "  b", "   "}))
	assert.Equal(t, "", WhitePrefix([]string{"a", "  b"}))
	assert.Equal(t, "", WhitePrefix(nil))
	assert.Equal(t, "\t", WhitePrefix([]string{"\tx\n", "\t\ty\n"}))
}

func TestReindentBlock(t *testing.T) {
	got := ReindentBlock([]string{"    if x {", "        y()", "", "    }"}, "")
	assert.Equal(t, "if x {\n    y()\n\n}", got)

	got = Reindent("a\n  b\n", "\t")
	assert.Equal(t, "\ta\n\t  b\n", got)
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, " * ", CommonPrefix([]string{" * a", " * b", " * "}))
	assert.Equal(t, "", CommonPrefix([]string{"x", "y"}))
	assert.Equal(t, "", CommonPrefix(nil))
	assert.Equal(t, "abc", CommonPrefix([]string{"abc"}))
}

func TestCodeStripsCommonPrefix(t *testing.T) {
	c := build("main.c", 3,
		" * @code{.codegen}\n",
		[]string{" * for i := 0; i < 2; i++ {", " *     codegen.Outl(i)", " * }"},
		" * @endcode{.codegen}\n")

	code, warnings := c.Code()
	assert.Empty(t, warnings)
	assert.Equal(t, "for i := 0; i < 2; i++ {\n    codegen.Outl(i)\n}", code)
	assert.Equal(t, " ", c.WhitePrefix())
	assert.Equal(t, "+3", c.ID())
	assert.Equal(t, 5, c.LineNo(1))
	assert.Equal(t, 0, c.LineNo(9))
}

func TestCodeGuessesCommentPrefix(t *testing.T) {
	// The begin marker shares nothing with the body
	c := build("drv.c", 10,
		"/** @code{.codegen}\n",
		[]string{" * x := 1", " * codegen.Outl(x)", "missing()", " * _ = x"},
		" * @endcode{.codegen}\n")

	code, warnings := c.Code()
	require.Len(t, warnings, 2)
	assert.Equal(t, report.WarningPrefixHeuristic, warnings[0].Kind)
	assert.Equal(t, 13, warnings[0].Line)
	assert.Contains(t, warnings[0].Message, "(+10)")
	assert.Contains(t, warnings[0].Listing, "#13 (+10, line 4): missing()")
	assert.Contains(t, warnings[1].Message, "Assuming comment prefix ' * '")

	assert.Equal(t, "x := 1\ncodegen.Outl(x)\nmissing()\n_ = x", code)
}

func TestCodeGivesUpOnPrefix(t *testing.T) {
	c := build("drv.h", 1,
		"/* @code{.codegen}\n",
		[]string{"a()", "b()", "c()", "// d()"},
		"@endcode{.codegen} */\n")

	code, warnings := c.Code()
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[len(warnings)-1].Message, "Giving up")
	assert.Equal(t, "a()\nb()\nc()\n// d()", code)
}

func TestCodeNoGuessOutsideCLike(t *testing.T) {
	c := build("board.dts", 1,
		"/* @code{.codegen}\n",
		[]string{"  a()", "  b()"},
		"@endcode{.codegen} */\n")

	code, warnings := c.Code()
	assert.Empty(t, warnings)
	assert.Equal(t, "a()\nb()", code)
}

func TestCodeSingleLine(t *testing.T) {
	c := New("main.c", 7)
	c.AddMarker(`// @code{.codegen} codegen.Outl("x") @endcode{.codegen}` + "\n")
	c.AddLine(`codegen.Outl("x")`, 7)

	code, warnings := c.Code()
	assert.Empty(t, warnings)
	assert.Equal(t, `codegen.Outl("x")`, code)
}

func TestCodeBlankBody(t *testing.T) {
	c := build("a.txt", 1, "@code{.codegen}\n", []string{"", "   "}, "@endcode{.codegen}\n")
	code, _ := c.Code()
	assert.Equal(t, "", strings.TrimSpace(code))
}
