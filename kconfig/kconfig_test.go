package kconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `#
# Automatically generated file; DO NOT EDIT.
#
CONFIG_UART_STM32=y
CONFIG_UART_STM32_PORT_1=y
# CONFIG_UART_STM32_PORT_2 is not set
CONFIG_KERNEL_INIT_PRIORITY_DEVICE=50
CONFIG_BOARD="nucleo_l476rg"
`

func TestParse(t *testing.T) {
	s, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	v, ok := s.Lookup("CONFIG_UART_STM32_PORT_1")
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	v, ok = s.Lookup("CONFIG_BOARD")
	assert.True(t, ok)
	assert.Equal(t, `"nucleo_l476rg"`, v)

	_, ok = s.Lookup("CONFIG_UART_STM32_PORT_2")
	assert.False(t, ok)
	assert.True(t, s.IsUnset("CONFIG_UART_STM32_PORT_2"))

	assert.Equal(t, []string{
		"CONFIG_BOARD",
		"CONFIG_KERNEL_INIT_PRIORITY_DEVICE",
		"CONFIG_UART_STM32",
		"CONFIG_UART_STM32_PORT_1",
	}, s.Names())
}

func TestAllReturnsCopy(t *testing.T) {
	s, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	all := s.All()
	all["CONFIG_UART_STM32"] = "n"

	v, _ := s.Lookup("CONFIG_UART_STM32")
	assert.Equal(t, "y", v)
}

func TestLazyLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".config")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	s := New(path)
	v, ok := s.Lookup("CONFIG_KERNEL_INIT_PRIORITY_DEVICE")
	assert.True(t, ok)
	assert.Equal(t, "50", v)
}

func TestMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	_, ok := s.Lookup("CONFIG_ANY")
	assert.False(t, ok)
	assert.Empty(t, s.All())

	assert.Empty(t, New("").All())
}
