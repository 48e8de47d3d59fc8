// Package fileio reads and writes documents in their configured encoding,
// replaces files atomically and resolves names against include paths.
package fileio

import (
	"os"
	"strings"

	"github.com/teranos/codegen/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// LookupEncoding resolves an encoding name such as "latin1" or
// "ISO-8859-15". Empty and UTF-8 names return nil, meaning no transform.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "unknown encoding %q", name)
	}
	return enc, nil
}

// Decode converts data in encoding enc to a UTF-8 string.
func Decode(data []byte, enc string) (string, error) {
	e, err := LookupEncoding(enc)
	if err != nil {
		return "", err
	}
	if e == nil {
		return string(data), nil
	}
	out, err := e.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrapf(err, "failed to decode %s text", enc)
	}
	return string(out), nil
}

// Encode converts a UTF-8 string to encoding enc.
func Encode(text, enc string) ([]byte, error) {
	e, err := LookupEncoding(enc)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return []byte(text), nil
	}
	out, err := e.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode text as %s", enc)
	}
	return out, nil
}

// ReadFile reads a document and decodes it from enc.
func ReadFile(path, enc string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	return Decode(data, enc)
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
