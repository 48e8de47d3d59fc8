package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackPushRelease(t *testing.T) {
	var s Stack
	assert.Nil(t, s.Top())

	outer := NewFrame("a.c", "a.c", 1, &Halt{})
	inner := NewFrame("b.c", "a.c", 5, &Halt{})

	releaseOuter := s.Push(outer)
	releaseInner := s.Push(inner)
	assert.Equal(t, 2, s.Depth())
	assert.Same(t, inner, s.Top())
	assert.Same(t, outer, s.At(1))
	assert.Same(t, outer, s.At(7), "depth is clamped to the outermost frame")

	assert.Panics(t, releaseOuter, "out of order release")

	releaseInner()
	releaseInner()
	assert.Equal(t, 1, s.Depth())
	assert.Same(t, outer, s.Top())
}

func TestFrameLineMapping(t *testing.T) {
	f := NewFrame("a.c", "a.c", 10, &Halt{})
	f.code = []string{"x := 1", "codegen.Outl(y)"}
	f.lineNos = []int{11, 14}
	assert.Equal(t, "+10", f.SnippetID())

	f.evalOffset = f.Offset - 1
	assert.Equal(t, "+9", f.SnippetID())
	assert.Equal(t, 11, f.docLine(2))
	assert.Equal(t, 14, f.docLine(3))
	assert.Equal(t, 10, f.docLine(1), "preamble maps to the begin marker")
	assert.Equal(t, 14, f.docLine(99))
	assert.Equal(t, []string{
		"#11 (+9, line 2): x := 1",
		"#14 (+9, line 3): codegen.Outl(y)",
	}, f.listing())

	// Declarations compile without the preamble
	f.evalOffset = f.Offset
	assert.Equal(t, 11, f.docLine(1))
	assert.Equal(t, "#11 (+10, line 1): x := 1", f.listing()[0])
}

func TestHaltNilSafe(t *testing.T) {
	var h *Halt
	assert.False(t, h.Stopped())

	h = &Halt{}
	h.Stop()
	assert.True(t, h.Stopped())
}
