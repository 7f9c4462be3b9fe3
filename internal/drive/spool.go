package drive

import "io"

// Spool holds upload content while it is hashed and, optionally,
// encrypted, so the vault can be given an exact size.
type Spool interface {
	// Store reads r to EOF, computes its SHA-256, and keeps the bytes.
	// Returns the lowercase hex checksum and the size.
	Store(r io.Reader) (checksum string, size int64, err error)

	// StoreDerived is Store for content computed from spooled content,
	// such as its ciphertext. The size limit leaves room for encryption
	// overhead on top of the largest accepted upload.
	StoreDerived(r io.Reader) (checksum string, size int64, err error)

	// Open returns a reader for stored content.
	Open(checksum string) (io.ReadCloser, error)

	// Remove discards stored content (best-effort).
	Remove(checksum string)
}
