// Package linereader reads a document one line at a time while tracking
// 1-based line numbers.
package linereader

import (
	"bufio"
	"io"

	"github.com/teranos/codegen/errors"
)

// Reader yields lines including their trailing newline.
type Reader struct {
	r *bufio.Reader
	n int
}

// New wraps r.
func New(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line with its newline, or "" at end of stream.
// The last line of a document without a final newline is returned as is.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.Wrapf(err, "failed to read line %d", r.n+1)
	}
	if line == "" {
		return "", nil
	}
	r.n++
	return line, nil
}

// LineNumber is the number of the last line returned, 0 before the first read.
func (r *Reader) LineNumber() int {
	return r.n
}
