package fileio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/codegen/errors"
)

func TestEncodingRoundTrip(t *testing.T) {
	text := "/* Schalter für Geräte */\n"

	data, err := Encode(text, "latin1")
	require.NoError(t, err)
	assert.Len(t, data, len([]rune(text)), "latin1 is one byte per rune")

	back, err := Decode(data, "ISO-8859-1")
	require.NoError(t, err)
	assert.Equal(t, text, back)
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8"} {
		e, err := LookupEncoding(name)
		require.NoError(t, err)
		assert.Nil(t, e, name)
	}

	e, err := LookupEncoding("windows-1252")
	require.NoError(t, err)
	assert.NotNil(t, e)

	_, err = LookupEncoding("klingon-8")
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc\n", NormalizeNewlines("a\r\nb\rc\n"))
}

func TestAtomicWriteReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.c")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, WriteFile(path, "new", ""))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestAtomicWriteMissingDir(t *testing.T) {
	err := AtomicWrite(filepath.Join(t.TempDir(), "missing", "x.c"), []byte("x"))
	assert.Error(t, err)
}

func TestSearchPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(b, "templates", "drivers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(b, "templates", "drivers", "simple_tmpl.c"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(a, "modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(a, "modules", "dts_basic.go"), nil, 0o644))

	s := NewSearchPath(a)
	_, err := s.Find("templates/drivers/simple_tmpl.c")
	assert.True(t, errors.IsNotFound(err))

	s.Save()
	s.Add(b, a)
	assert.Equal(t, []string{a, b}, s.Dirs())

	p, err := s.Find("templates/drivers/simple_tmpl.c")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(b, "templates", "drivers", "simple_tmpl.c"), p)

	abs, err := s.Find(p)
	require.NoError(t, err)
	assert.Equal(t, p, abs)

	m, err := s.FindModule("dts_basic")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a, "modules", "dts_basic.go"), m)

	_, err = s.FindModule("declare")
	assert.True(t, errors.IsNotFound(err))

	s.Restore()
	assert.Equal(t, []string{a}, s.Dirs())
}
