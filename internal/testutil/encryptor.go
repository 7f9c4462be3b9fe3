package testutil

import "drive-go/internal/encryption"

// NewTestEncryptor returns a configured header-prefix encryptor.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewTestEncryptor()
}
