package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"drive-go/internal/config"
	"drive-go/internal/database"
	"drive-go/internal/drive"
	"drive-go/internal/encryption"
	"drive-go/internal/fs"
	"drive-go/internal/ledger"
	"drive-go/internal/model"
	"drive-go/internal/spool"
	"drive-go/internal/vault"
)

// DriveApp is the application layer between the CLI and DriveService.
// It constructs all dependencies from config, rebuilds the ledger from the
// journal, acts on behalf of one account, and manages the DB lifecycle on
// Close.
type DriveApp struct {
	cfg       *config.Config
	account   model.Account
	db        *database.SQLiteDatabase
	vault     drive.Vault
	spool     drive.Spool
	encryptor drive.Encryptor
	recorder  *drive.JournalRecorder
	service   *drive.DriveService
	op        *Operation
	logFile   *os.File
}

// NewDriveApp creates a fully wired DriveApp from the given config.
// operation identifies the CLI command being run (e.g. "file add").
// account is the acting account; empty means the configured default.
// The caller must call Close when done.
func NewDriveApp(cfg *config.Config, operation string, account string) (*DriveApp, error) {
	if account == "" {
		account = cfg.Account
	}
	if account == "" {
		return nil, fmt.Errorf("no account: set account in the config or pass --as")
	}

	visibility, err := ledger.ParseVisibility(cfg.Visibility)
	if err != nil {
		return nil, fmt.Errorf("reading visibility: %w", err)
	}

	if len(cfg.Vaults) == 0 {
		return nil, fmt.Errorf("no vaults configured")
	}
	v, err := vault.NewVaultFromConfig(cfg.Vaults[0])
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	// Check local DB version against remote vault version.
	remoteVersion, err := v.GetMetadataVersion(cfg.HostID, "db")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking remote metadata version: %w", err)
	}
	localMax, err := db.MaxOperationID()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking local metadata version: %w", err)
	}
	if remoteVersion > localMax {
		db.Close()
		return nil, fmt.Errorf("local database is behind remote (local=%d, remote=%d): restore from vault or re-initialize", localMax, remoteVersion)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("as", account)

	recorder := drive.NewJournalRecorder(db, drive.UUIDGenerator{})
	events, err := recorder.Pending()
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("loading journal: %w", err)
	}

	// The recorder keeps the ledger in step with other drive processes
	// writing to the same journal.
	l := ledger.New(
		ledger.WithClock(drive.RealClock{}),
		ledger.WithRecorder(recorder),
		ledger.WithVisibility(visibility),
	)
	if err := l.Replay(events); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("rebuilding ledger: %w", err)
	}
	logger.Debug("ledger rebuilt", "events", len(events), "visibility", l.Visibility())

	sp, err := spool.NewSpoolFromConfig(cfg.Spool)
	if err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating spool: %w", err)
	}

	svc := drive.NewDriveService(l, db, v, sp, enc, &slogAdapter{l: logger})

	return &DriveApp{
		cfg:       cfg,
		account:   model.Account(account),
		db:        db,
		vault:     v,
		spool:     sp,
		encryptor: enc,
		recorder:  recorder,
		service:   svc,
		op:        NewOperation(operation, model.Account(account)),
		logFile:   logFile,
	}, nil
}

// Account returns the acting account.
func (a *DriveApp) Account() model.Account {
	return a.account
}

// persistOperation saves the operation to the database, giving it an
// auto-increment ID, and attributes subsequent journal events to it.
// This should only be called for DB-mutating commands.
func (a *DriveApp) persistOperation(params ...string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = strings.Join(params, " ")
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters, a.op.Account)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	a.recorder.SetOperation(dbOp.ID)
	return nil
}

// MarkFailed records that the command failed; Close stores the status.
func (a *DriveApp) MarkFailed() {
	a.op.Status = "error"
}

// UploadFile stores the file at rawPath and adds it to the acting
// account's catalog. name defaults to the file's base name.
func (a *DriveApp) UploadFile(rawPath, name string) (model.File, error) {
	absPath, _, err := fs.ResolveRegularFile(rawPath)
	if err != nil {
		return model.File{}, err
	}
	if name == "" {
		name = filepath.Base(absPath)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return model.File{}, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if err := a.persistOperation(absPath, name); err != nil {
		return model.File{}, err
	}
	return a.service.Upload(a.account, name, f)
}

// RegisterFile adds a locator for content stored outside the vault.
func (a *DriveApp) RegisterFile(locator, name string) (model.File, error) {
	if err := a.persistOperation(locator, name); err != nil {
		return model.File{}, err
	}
	return a.service.Register(a.account, locator, name)
}

// DeleteFile removes locator from the acting account's catalog.
func (a *DriveApp) DeleteFile(locator string) error {
	if err := a.persistOperation(locator); err != nil {
		return err
	}
	return a.service.DeleteFile(a.account, locator)
}

// Files lists the acting account's catalog.
func (a *DriveApp) Files() []model.File {
	return a.service.Files(a.account)
}

// FileName returns the display name owner gave locator.
func (a *DriveApp) FileName(owner, locator string) (string, error) {
	return a.service.FileName(model.Account(owner), locator)
}

// GetFile writes owner's file to w. passphrase is only called when the
// stored content is encrypted.
func (a *DriveApp) GetFile(owner, locator string, w io.Writer, passphrase func() (string, error)) error {
	encrypted, err := a.service.IsEncrypted(locator)
	if err != nil {
		return err
	}

	var dc drive.DecryptionContext
	if encrypted {
		if a.encryptor == nil {
			return fmt.Errorf("content is encrypted but encryption is disabled in the config")
		}
		p, err := passphrase()
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		dc, err = a.encryptor.Unlock(p)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
	}
	return a.service.Download(a.account, model.Account(owner), locator, w, dc)
}

// AddFriend adds friend to the acting account's friend list.
func (a *DriveApp) AddFriend(friend string) error {
	if err := a.persistOperation(friend); err != nil {
		return err
	}
	return a.service.AddFriend(a.account, model.Account(friend))
}

// RemoveFriend removes friend from the acting account's friend list.
func (a *DriveApp) RemoveFriend(friend string) error {
	if err := a.persistOperation(friend); err != nil {
		return err
	}
	return a.service.RemoveFriend(a.account, model.Account(friend))
}

// Friends lists the acting account's friends.
func (a *DriveApp) Friends() []drive.Friend {
	return a.service.Friends(a.account)
}

// Share approves locator for every viewer.
func (a *DriveApp) Share(locator string, viewers []string) error {
	if err := a.persistOperation(append([]string{locator}, viewers...)...); err != nil {
		return err
	}
	return a.service.Share(a.account, locator, toAccounts(viewers))
}

// Unshare withdraws approvals of locator.
func (a *DriveApp) Unshare(locator string, viewers []string) error {
	if err := a.persistOperation(append([]string{locator}, viewers...)...); err != nil {
		return err
	}
	return a.service.Unshare(a.account, locator, toAccounts(viewers))
}

// Status partitions the acting account's friends by approval for locator.
func (a *DriveApp) Status(locator string) (*drive.ApprovalStatus, error) {
	return a.service.Status(a.account, locator)
}

// SharedWithMe lists files friends have approved for the acting account.
func (a *DriveApp) SharedWithMe() []drive.SharedGroup {
	return a.service.SharedWithMe(a.account)
}

// GetHistory returns the most recent mutating operations.
func (a *DriveApp) GetHistory(limit int) ([]*model.Operation, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record, snapshots the DB, and uploads it to the vault.
// For non-persisted operations: just closes the database.
func (a *DriveApp) Close() error {
	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}

		// Version = newest operation in the snapshot, compared against
		// MaxOperationID on open. Other processes may have added later ones.
		version := a.op.ID
		if maxID, err := a.db.MaxOperationID(); err != nil {
			keep(err)
		} else if maxID > version {
			version = maxID
		}

		// VACUUM INTO refuses to overwrite, so only reserve a name.
		tmpDir, err := os.MkdirTemp("", "drive-db-snapshot-*")
		if err != nil {
			keep(fmt.Errorf("creating temp dir for db snapshot: %w", err))
		}

		var snapshot string
		if tmpDir != "" {
			snapshot = filepath.Join(tmpDir, "snapshot.db")
			if err := a.db.BackupTo(snapshot); err != nil {
				keep(fmt.Errorf("snapshotting database: %w", err))
				snapshot = ""
			}
		}

		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}

		if snapshot != "" {
			if err := a.uploadMetadata(snapshot, version); err != nil {
				keep(err)
			}
		}

		if tmpDir != "" {
			os.RemoveAll(tmpDir)
		}
	} else {
		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}
	}

	if c, ok := a.spool.(io.Closer); ok {
		if err := c.Close(); err != nil {
			keep(err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// uploadMetadata uploads the snapshot at path to the vault as "db" metadata.
func (a *DriveApp) uploadMetadata(path string, version int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening db snapshot for upload: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat db snapshot: %w", err)
	}

	if err := a.vault.PutMetadata(a.cfg.HostID, "db", f, info.Size(), version); err != nil {
		return fmt.Errorf("uploading metadata to vault: %w", err)
	}
	return nil
}

func toAccounts(ss []string) []model.Account {
	out := make([]model.Account, len(ss))
	for i, s := range ss {
		out[i] = model.Account(s)
	}
	return out
}
