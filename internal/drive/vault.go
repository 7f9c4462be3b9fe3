package drive

import "io"

// Vault provides an interface for content storage backends.
// Content is addressed by locator; the ledger never reads it.
// All operations use io.Reader/io.Writer for streaming to support large files
// without loading them entirely into memory.
type Vault interface {
	// PutContent stores content under key.
	// The operation is idempotent: storing the same key multiple times is safe.
	// size is the number of bytes that will be read from r.
	PutContent(key string, r io.Reader, size int64) error

	// GetContent retrieves content by key and writes it to w.
	GetContent(key string, w io.Writer) error

	// HasContent reports whether key has been stored.
	HasContent(key string) (bool, error)

	// PutMetadata stores a named metadata item for a specific host.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the metadata for consistency checks.
	// Known names: "db" (journal snapshot).
	PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata retrieves a named metadata item for a specific host and writes it to w.
	GetMetadata(hostID string, name string, w io.Writer) error

	// GetMetadataVersion returns the metadata version for a named item on a host.
	// Returns 0 if no metadata has been stored for this host/name.
	GetMetadataVersion(hostID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
