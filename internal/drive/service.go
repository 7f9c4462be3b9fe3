package drive

import (
	"errors"

	"drive-go/internal/ledger"
)

// ErrAccessDenied is returned when a viewer asks for content the ledger
// does not let them see.
var ErrAccessDenied = errors.New("access denied")

// ErrKeysNotConfigured is returned by Upload when an encryptor is set but
// its key pair has not been generated yet.
var ErrKeysNotConfigured = errors.New("encryption keys not initialized")

// DriveService is the orchestration layer between the CLI and the ledger.
// The ledger decides who may see what; the service moves bytes in and out
// of the vault around those decisions.
type DriveService struct {
	ledger    *ledger.Ledger
	journal   Journal
	vault     Vault
	spool     Spool
	encryptor Encryptor
	logger    Logger
}

// NewDriveService creates a new DriveService with the provided dependencies.
// vault, spool, and encryptor may be nil for ledger-only use; journal may be
// nil when no operation history is kept.
func NewDriveService(l *ledger.Ledger, journal Journal, vault Vault, spool Spool, encryptor Encryptor, logger Logger) *DriveService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &DriveService{
		ledger:    l,
		journal:   journal,
		vault:     vault,
		spool:     spool,
		encryptor: encryptor,
		logger:    logger,
	}
}

// Ledger exposes the underlying ledger for read queries.
func (s *DriveService) Ledger() *ledger.Ledger {
	return s.ledger
}

// encrypting reports whether new uploads are encrypted at rest.
func (s *DriveService) encrypting() (bool, error) {
	if s.encryptor == nil {
		return false, nil
	}
	if !s.encryptor.IsConfigured() {
		return false, ErrKeysNotConfigured
	}
	return true, nil
}
