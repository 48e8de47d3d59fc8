// Package checksum hashes generated output regions.
//
// A checksum is the lowercase hex form of a 64-bit xxhash over the raw
// bytes of a region, as embedded in end-output markers.
package checksum

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Hasher accumulates region content line by line.
type Hasher struct {
	d *xxhash.Digest
}

// New returns an empty Hasher.
func New() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// WriteString adds s to the hashed content.
func (h *Hasher) WriteString(s string) {
	_, _ = h.d.WriteString(s)
}

// Sum returns the hex checksum of everything written so far.
func (h *Hasher) Sum() string {
	return format(h.d.Sum64())
}

// String returns the checksum of s.
func String(s string) string {
	return format(xxhash.Sum64String(s))
}

// Bytes returns the checksum of b.
func Bytes(b []byte) string {
	return format(xxhash.Sum64(b))
}

func format(v uint64) string {
	return fmt.Sprintf("%016x", v)
}
