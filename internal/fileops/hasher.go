// Package fileops provides the streaming I/O primitives shared by the
// staging pipeline: hash-while-read wrappers and atomic file placement.
package fileops

import (
	"hash"
	"io"
)

// HashingReader wraps an io.Reader and computes a hash of all data read.
// It lets a single pass over a layer stream feed both the destination copy
// and the digest accumulator without buffering the file in memory.
type HashingReader struct {
	r io.Reader
	h hash.Hash
}

// NewHashingReader creates a reader that computes a hash while reading.
func NewHashingReader(r io.Reader, h hash.Hash) *HashingReader {
	return &HashingReader{r: r, h: h}
}

// Read implements io.Reader.
func (hr *HashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		_, _ = hr.h.Write(p[:n]) //nolint:errcheck // hash writes never fail
	}
	return n, err
}

// Sum returns the hash sum computed so far.
func (hr *HashingReader) Sum() []byte {
	return hr.h.Sum(nil)
}
