package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrap(ErrTamperDetected, "main.c:12")

	assert.True(t, Is(err, ErrTamperDetected))
	assert.False(t, Is(err, ErrCompile))
	assert.Contains(t, err.Error(), "main.c:12")
}

func TestNewUsageError(t *testing.T) {
	err := NewUsageError("no files to process (%d given)", 0)

	require.NotNil(t, err)
	assert.Equal(t, "no files to process (0 given)", err.Error())
	assert.True(t, IsUsage(err))
	assert.False(t, IsNotFound(err))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("node %q", "uart_1")

	assert.True(t, IsNotFound(err))
	assert.Equal(t, `node "uart_1"`, err.Error())
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsUsage(nil))
}

func TestHintsAndDetails(t *testing.T) {
	err := Wrap(ErrTamperDetected, "region at line 4")
	err = WithHint(err, "delete the old checksum to unprotect")
	err = WithDetail(err, "#5 (+3, line 2): codegen.Outl(x)")

	assert.True(t, Is(err, ErrTamperDetected))
	assert.Equal(t, []string{"delete the old checksum to unprotect"}, GetAllHints(err))
	assert.Contains(t, GetAllDetails(err), "#5 (+3, line 2): codegen.Outl(x)")
}

func ExampleWrap() {
	err := Wrap(ErrMalformedRegion, "unexpected end marker")
	fmt.Println(err)
	// Output: unexpected end marker: malformed region
}
