// Package spool holds upload content between the caller's reader and the
// vault. Content is hashed on the way in and kept under its SHA-256 hex
// checksum; identical content stored twice is kept once and reference
// counted, so concurrent uploads of the same bytes do not remove each
// other's copy.
package spool

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxSize is the largest single upload accepted when the config
// leaves max_size unset (1GiB).
const DefaultMaxSize int64 = 1 << 30

// derivedLimit is the size allowed for content derived from an upload of
// at most maxSize bytes. age adds a header and 16 bytes per 64KiB chunk.
func derivedLimit(maxSize int64) int64 {
	return maxSize + maxSize/1024 + 1<<20
}

// ErrTooLarge is returned when content exceeds the spool's max size.
var ErrTooLarge = errors.New("content exceeds spool max size")

// hashingCopy copies at most maxSize bytes of r into w and returns the hex
// checksum and byte count.
func hashingCopy(w io.Writer, r io.Reader, maxSize int64) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(w, h), io.LimitReader(r, maxSize+1))
	if err != nil {
		return "", n, fmt.Errorf("reading content: %w", err)
	}
	if n > maxSize {
		return "", n, fmt.Errorf("%w (%d bytes)", ErrTooLarge, maxSize)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
