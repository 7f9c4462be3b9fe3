package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"drive-go/internal/database/migrations"
	"drive-go/internal/drive"
	"drive-go/internal/ledger"
	"drive-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements drive.Journal using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:   db,
		path: path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: PRAGMAs are per connection, every :memory: connection
	// is a separate database, and the journal has a single writer anyway.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Other drive processes may hold the write lock for a moment.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Event operations

// AppendEvent inserts ev only while the newest event is still number after.
// The check and the insert are one statement, so SQLite's write lock makes
// them atomic across processes.
func (s *SQLiteDatabase) AppendEvent(opID, after int64, ev *model.Event) error {
	viewers := ev.Viewers
	if viewers == nil {
		viewers = []model.Account{}
	}
	viewersJSON, err := json.Marshal(viewers)
	if err != nil {
		return fmt.Errorf("encoding viewers: %w", err)
	}

	res, err := s.db.ExecContext(context.Background(), `
		INSERT INTO events (id, operation_id, kind, actor, target, locator, display_name, viewers, occurred_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE (SELECT COALESCE(MAX(seq), 0) FROM events) = ?`,
		ev.ID, opID, string(ev.Kind), string(ev.Actor), string(ev.Target),
		ev.Locator, ev.DisplayName, string(viewersJSON), ev.OccurredAt.UTC(),
		after,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("appending after event %d: %w", after, ledger.ErrJournalConflict)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading event sequence: %w", err)
	}
	ev.Seq = seq
	return nil
}

func (s *SQLiteDatabase) ListEvents() ([]model.Event, error) {
	return s.ListEventsAfter(0)
}

func (s *SQLiteDatabase) ListEventsAfter(seq int64) ([]model.Event, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT seq, id, kind, actor, target, locator, display_name, viewers, occurred_at
		FROM events
		WHERE seq > ?
		ORDER BY seq`, seq)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			ev          model.Event
			kind        string
			actor       string
			target      string
			viewersJSON string
		)
		if err := rows.Scan(&ev.Seq, &ev.ID, &kind, &actor, &target, &ev.Locator, &ev.DisplayName, &viewersJSON, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Kind = model.EventKind(kind)
		ev.Actor = model.Account(actor)
		ev.Target = model.Account(target)
		if err := json.Unmarshal([]byte(viewersJSON), &ev.Viewers); err != nil {
			return nil, fmt.Errorf("decoding viewers of event %d: %w", ev.Seq, err)
		}
		if len(ev.Viewers) == 0 {
			ev.Viewers = nil
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation, parameters string, account model.Account) (*model.Operation, error) {
	startedAt := time.Now().UTC()
	res, err := s.db.ExecContext(context.Background(), `
		INSERT INTO operations (operation, parameters, account, started_at)
		VALUES (?, ?, ?, ?)`,
		operation, parameters, string(account), startedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}

	return &model.Operation{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		Account:    account,
		StartedAt:  startedAt,
		Status:     "running",
	}, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE operations SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now().UTC(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing operation: no operation with id %d", id)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, operation, parameters, account, started_at, finished_at, status
		FROM operations
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var result []*model.Operation
	for rows.Next() {
		var (
			op       model.Operation
			account  string
			finished sql.NullTime
		)
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &account, &op.StartedAt, &finished, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		op.Account = model.Account(account)
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		result = append(result, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID() (int64, error) {
	var id int64
	err := s.db.QueryRowContext(context.Background(), `SELECT COALESCE(MAX(id), 0) FROM operations`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate brings the schema up to date.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements drive.Journal interface
var _ drive.Journal = (*SQLiteDatabase)(nil)
