package drive

import (
	"fmt"
	"sync"

	"drive-go/internal/ledger"
	"drive-go/internal/model"
)

// Journal is the durable, append-only record of ledger events plus the
// audit trail of CLI operations that produced them.
type Journal interface {
	// AppendEvent stores ev under operation opID and sets ev.Seq, provided
	// the newest stored event is still the one numbered after (0 for an
	// empty journal). Otherwise it stores nothing and returns an error
	// wrapping ledger.ErrJournalConflict.
	AppendEvent(opID, after int64, ev *model.Event) error

	// ListEvents returns every event in Seq order.
	ListEvents() ([]model.Event, error)

	// ListEventsAfter returns the events numbered above seq, in Seq order.
	ListEventsAfter(seq int64) ([]model.Event, error)

	// CreateOperation starts an audit row and returns it with its ID set.
	CreateOperation(operation, parameters string, account model.Account) (*model.Operation, error)

	// FinishOperation stamps the end time and final status.
	FinishOperation(id int64, status string) error

	// ListOperations returns up to limit operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// MaxOperationID returns the highest operation ID, or 0 when empty.
	MaxOperationID() (int64, error)

	// Close closes the underlying storage.
	Close() error
}

// JournalRecorder adapts a Journal to ledger.Recorder and ledger.Syncer.
// Events are tagged with the operation set by SetOperation; recording
// without one fails so that read-only commands can never write to the
// journal. The recorder remembers the newest event it has handed to the
// ledger, so appends made by other processes sharing the journal are
// detected and replayed instead of being overwritten.
type JournalRecorder struct {
	journal Journal
	idgen   IDGenerator

	mu   sync.Mutex
	opID int64
	last int64
}

var (
	_ ledger.Recorder = (*JournalRecorder)(nil)
	_ ledger.Syncer   = (*JournalRecorder)(nil)
)

// NewJournalRecorder creates a recorder writing to j.
func NewJournalRecorder(j Journal, idgen IDGenerator) *JournalRecorder {
	return &JournalRecorder{journal: j, idgen: idgen}
}

// SetOperation sets the operation new events are attributed to.
func (r *JournalRecorder) SetOperation(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opID = id
}

// Pending returns the journal events the ledger has not seen yet.
func (r *JournalRecorder) Pending() ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.journal.ListEventsAfter(r.last)
	if err != nil {
		return nil, err
	}
	if n := len(events); n > 0 {
		r.last = events[n-1].Seq
	}
	return events, nil
}

// Record assigns an event ID and appends the event to the journal.
func (r *JournalRecorder) Record(ev model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opID == 0 {
		return fmt.Errorf("no operation in progress for %s", ev.Kind)
	}

	ev.ID = r.idgen.New()
	if err := r.journal.AppendEvent(r.opID, r.last, &ev); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	r.last = ev.Seq
	return nil
}
