package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/codegen/errors"
)

func TestErrorMatchesSentinel(t *testing.T) {
	tests := []struct {
		kind     Kind
		sentinel error
	}{
		{KindUsage, errors.ErrUsage},
		{KindMalformedRegion, errors.ErrMalformedRegion},
		{KindCompile, errors.ErrCompile},
		{KindExecution, errors.ErrExecution},
		{KindTamperDetected, errors.ErrTamperDetected},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := error(New(tt.kind, "main.c", 3, "boom"))
			assert.True(t, errors.Is(err, tt.sentinel))

			wrapped := errors.Wrap(err, "processing")
			assert.True(t, errors.Is(wrapped, tt.sentinel))
			assert.False(t, errors.Is(wrapped, errors.ErrNotFound))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{
		Kind:    KindExecution,
		File:    "drivers/uart.c",
		Line:    42,
		Message: "eval exception within codegen snippet (+40)",
		Err:     errors.New("index out of range"),
	}
	assert.Equal(t, "drivers/uart.c:42: eval exception within codegen snippet (+40): index out of range", err.Error())

	assert.Equal(t, "bare", (&Error{Message: "bare"}).Error())
}

func TestFormatPlainIncludesListing(t *testing.T) {
	err := New(KindCompile, "a.c", 5, "compile error")
	err.Listing = []string{
		ListingLine(5, "+3", 2, "codegen.Outl(x"),
		ListingLine(6, "+3", 3, "}"),
	}

	out := err.Format(ContextPlain)
	assert.Equal(t, "a.c:5: compile error\n#5 (+3, line 2): codegen.Outl(x\n#6 (+3, line 3): }", out)
}

func TestFormatTerminalMentionsLocation(t *testing.T) {
	err := New(KindTamperDetected, "a.c", 9, "Output has been edited! Delete old checksum to unprotect.")
	err.Snippet = "+2"

	out := err.Format(ContextTerminal)
	assert.Contains(t, out, "a.c:9")
	assert.Contains(t, out, "+2")
	assert.Contains(t, out, "Delete old checksum")
}

func TestAsAndRender(t *testing.T) {
	base := New(KindMalformedRegion, "x.h", 1, "Unexpected '@endcode{.codegen}'")
	wrapped := errors.Wrap(base, "x.h")

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, base, got)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)

	assert.Equal(t, "plain", Render(errors.New("plain"), ContextPlain))
	assert.Equal(t, base.Format(ContextPlain), Render(wrapped, ContextPlain))
}

func TestWarningString(t *testing.T) {
	w := Warning{
		Kind:    WarningEmptyFile,
		File:    "main.c",
		Message: "no codegen code found in main.c",
	}
	assert.Equal(t, "main.c: no codegen code found in main.c", w.String())

	w = Warning{Kind: WarningPrefixHeuristic, File: "a.c", Line: 4, Message: "m", Listing: []string{"#5 (+4, line 2): x"}}
	assert.Equal(t, "a.c:4: m\n#5 (+4, line 2): x", w.String())
}
