package drive

import (
	"errors"
	"fmt"
	"io"

	"drive-go/internal/ledger"
	"drive-go/internal/model"
)

// encryptedSuffix marks vault keys holding age ciphertext.
const encryptedSuffix = ".age"

// Upload stores the content read from r in the vault and registers it in
// owner's catalog. The locator is the SHA-256 of the plaintext.
// Content reaches the vault before the catalog entry, so a rejected file
// leaves at most an unreferenced blob.
func (s *DriveService) Upload(owner model.Account, name string, r io.Reader) (model.File, error) {
	if s.vault == nil || s.spool == nil {
		return model.File{}, fmt.Errorf("upload requires a vault")
	}

	encrypt, err := s.encrypting()
	if err != nil {
		return model.File{}, err
	}

	checksum, size, err := s.spool.Store(r)
	if err != nil {
		return model.File{}, fmt.Errorf("spooling content: %w", err)
	}
	defer s.spool.Remove(checksum)

	if err := s.storeContent(checksum, size, encrypt); err != nil {
		return model.File{}, err
	}

	file, err := s.ledger.AddFile(owner, checksum, name)
	if err != nil {
		return model.File{}, fmt.Errorf("adding file: %w", err)
	}

	s.logger.Info("file uploaded", "owner", owner, "locator", checksum, "size", size)
	return file, nil
}

// storeContent copies spooled content into the vault unless it is already
// there, encrypting on the way when keys are configured.
func (s *DriveService) storeContent(checksum string, size int64, encrypt bool) error {
	key := checksum
	if encrypt {
		key += encryptedSuffix
	}

	exists, err := s.vault.HasContent(key)
	if err != nil {
		return fmt.Errorf("checking vault: %w", err)
	}
	if exists {
		s.logger.Debug("content deduplicated", "locator", checksum)
		return nil
	}

	if !encrypt {
		rc, err := s.spool.Open(checksum)
		if err != nil {
			return fmt.Errorf("opening spooled content: %w", err)
		}
		defer rc.Close()
		if err := s.vault.PutContent(key, rc, size); err != nil {
			return fmt.Errorf("uploading to vault: %w", err)
		}
		return nil
	}

	// Ciphertext size is unknown until encryption finishes, so it is
	// spooled as well.
	plain, err := s.spool.Open(checksum)
	if err != nil {
		return fmt.Errorf("opening spooled content: %w", err)
	}
	pr, pw := io.Pipe()
	go func() {
		err := s.encryptor.Encrypt(plain, pw)
		plain.Close()
		pw.CloseWithError(err)
	}()

	encSum, encSize, err := s.spool.StoreDerived(pr)
	pr.CloseWithError(err)
	if err != nil {
		return fmt.Errorf("encrypting content: %w", err)
	}
	defer s.spool.Remove(encSum)

	rc, err := s.spool.Open(encSum)
	if err != nil {
		return fmt.Errorf("opening encrypted content: %w", err)
	}
	defer rc.Close()

	if err := s.vault.PutContent(key, rc, encSize); err != nil {
		return fmt.Errorf("uploading to vault: %w", err)
	}
	return nil
}

// Register adds a locator for content stored elsewhere (for example an
// IPFS pin). Nothing is written to the vault.
func (s *DriveService) Register(owner model.Account, locator, name string) (model.File, error) {
	file, err := s.ledger.AddFile(owner, locator, name)
	if err != nil {
		return model.File{}, fmt.Errorf("adding file: %w", err)
	}
	s.logger.Info("file registered", "owner", owner, "locator", locator)
	return file, nil
}

// DeleteFile removes the file from owner's catalog. Content stays in the
// vault because other owners may reference the same locator.
func (s *DriveService) DeleteFile(owner model.Account, locator string) error {
	if err := s.ledger.DeleteFile(owner, locator); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	s.logger.Info("file deleted", "owner", owner, "locator", locator)
	return nil
}

// Files returns owner's catalog.
func (s *DriveService) Files(owner model.Account) []model.File {
	return s.ledger.GetAllFiles(owner)
}

// FileName returns the display name owner gave locator.
func (s *DriveService) FileName(owner model.Account, locator string) (string, error) {
	return s.ledger.FileName(owner, locator)
}

// Download writes owner's file to w if viewer may see it. dc is needed
// only for content that was encrypted at upload.
func (s *DriveService) Download(viewer, owner model.Account, locator string, w io.Writer, dc DecryptionContext) error {
	if s.vault == nil {
		return fmt.Errorf("download requires a vault")
	}
	if !s.ledger.CanView(viewer, owner, locator) {
		return fmt.Errorf("%s cannot view %s/%s: %w", viewer, owner, locator, ErrAccessDenied)
	}

	encrypted, err := s.IsEncrypted(locator)
	if err != nil {
		return err
	}

	if !encrypted {
		if err := s.vault.GetContent(locator, w); err != nil {
			return fmt.Errorf("retrieving content from vault: %w", err)
		}
		s.logger.Info("file downloaded", "viewer", viewer, "owner", owner, "locator", locator)
		return nil
	}

	if dc == nil {
		return fmt.Errorf("content is encrypted but no passphrase was provided")
	}

	// Pipe vault output directly to the decryptor, no intermediate buffer.
	pr, pw := io.Pipe()
	vaultErrCh := make(chan error, 1)
	go func() {
		err := s.vault.GetContent(locator+encryptedSuffix, pw)
		pw.CloseWithError(err)
		vaultErrCh <- err
	}()

	decryptErr := dc.Decrypt(pr, w)
	pr.CloseWithError(decryptErr)
	vaultErr := <-vaultErrCh

	if decryptErr != nil {
		return fmt.Errorf("decrypting content: %w", errors.Join(decryptErr, vaultErr))
	}

	s.logger.Info("file downloaded", "viewer", viewer, "owner", owner, "locator", locator, "encrypted", true)
	return nil
}

// IsEncrypted reports whether the vault holds locator as ciphertext, in
// which case Download needs a DecryptionContext.
func (s *DriveService) IsEncrypted(locator string) (bool, error) {
	if s.vault == nil {
		return false, fmt.Errorf("no vault configured")
	}
	encrypted, err := s.vault.HasContent(locator + encryptedSuffix)
	if err != nil {
		return false, fmt.Errorf("checking vault: %w", err)
	}
	return encrypted, nil
}

// IsLedgerError reports whether err is a caller precondition failure from
// the ledger (as opposed to an I/O fault).
func IsLedgerError(err error) bool {
	for _, target := range []error{
		ledger.ErrDuplicateFile,
		ledger.ErrFileNotFound,
		ledger.ErrDuplicateFriend,
		ledger.ErrFriendNotFound,
		ledger.ErrSelfFriend,
		ledger.ErrNotAFriend,
		ledger.ErrInvalidArgument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
