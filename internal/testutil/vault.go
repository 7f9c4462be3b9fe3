package testutil

import (
	"drive-go/internal/spool"
	"drive-go/internal/vault"
)

// NewTestVault creates a new in-memory vault for testing.
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}

// NewTestSpool creates an in-memory spool with the default size limit.
func NewTestSpool() *spool.MemorySpool {
	return spool.NewMemorySpool(0)
}
