// Package ledger implements the access-control ledger: each account's file
// catalog, the directed friendship graph, and per-file approvals, together
// with the read queries that reconstruct what an account can see.
//
// The ledger is a deterministic state machine. Mutations are serialized
// behind a single write lock and are all-or-nothing; queries share a read
// lock and always observe a consistent state. Cross-table invariants
// (no approval without its file and friendship edge) are enforced eagerly
// at the mutation boundary.
package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"drive-go/internal/model"
)

// Clock supplies timestamps for new events.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Recorder persists an event before the ledger applies it. If Record
// returns an error the mutation is abandoned and the state is unchanged.
type Recorder interface {
	Record(ev model.Event) error
}

// Syncer is implemented by recorders whose journal other processes append
// to. Pending returns the events appended since the last one the recorder
// saw, in order. The ledger applies them before checking each mutation.
type Syncer interface {
	Pending() ([]model.Event, error)
}

// maxRecordAttempts bounds how often one mutation is retried after losing
// the journal to another writer.
const maxRecordAttempts = 5

// Visibility selects which friends contribute to GetApprovedFiles.
type Visibility int

const (
	// VisibilityMutual requires both friendship edges between owner and viewer.
	VisibilityMutual Visibility = iota
	// VisibilityDirected requires only the viewer's own edge to the owner
	// (plus the owner's approval, which in turn needs owner -> viewer).
	VisibilityDirected
)

func (v Visibility) String() string {
	switch v {
	case VisibilityMutual:
		return "mutual"
	case VisibilityDirected:
		return "directed"
	default:
		return fmt.Sprintf("Visibility(%d)", int(v))
	}
}

// ParseVisibility maps a config value to a Visibility. Empty means mutual.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "mutual":
		return VisibilityMutual, nil
	case "directed":
		return VisibilityDirected, nil
	default:
		return 0, fmt.Errorf("unknown visibility %q: %w", s, ErrInvalidArgument)
	}
}

type fileKey struct {
	owner   model.Account
	locator string
}

type edge struct {
	subject model.Account
	object  model.Account
}

type approvalKey struct {
	file   fileKey
	viewer model.Account
}

// Ledger owns the three tables. The zero value is not usable; call New.
type Ledger struct {
	mu sync.RWMutex

	files   map[model.Account][]model.File
	fileSet map[fileKey]struct{}

	friends   map[model.Account][]model.Account
	friendSet map[edge]struct{}

	approvals   map[fileKey][]model.Account
	approvalSet map[approvalKey]struct{}

	clock      Clock
	recorder   Recorder
	visibility Visibility
	last       time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the timestamp source. Defaults to the wall clock.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithRecorder sets the journal that receives every applied event.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) { l.recorder = r }
}

// WithVisibility selects the friendship model. Defaults to VisibilityMutual.
func WithVisibility(v Visibility) Option {
	return func(l *Ledger) { l.visibility = v }
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		files:       make(map[model.Account][]model.File),
		fileSet:     make(map[fileKey]struct{}),
		friends:     make(map[model.Account][]model.Account),
		friendSet:   make(map[edge]struct{}),
		approvals:   make(map[fileKey][]model.Account),
		approvalSet: make(map[approvalKey]struct{}),
		clock:       wallClock{},
		visibility:  VisibilityMutual,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Visibility returns the friendship model this ledger was built with.
func (l *Ledger) Visibility() Visibility {
	return l.visibility
}

// stamp returns the next event time. Times never go backwards.
func (l *Ledger) stamp() time.Time {
	now := l.clock.Now()
	if now.Before(l.last) {
		return l.last
	}
	return now
}

// mutate runs the catch-up / check / record / apply cycle for a new event
// under the write lock. The returned event is the one that was applied
// (viewer lists are narrowed to the viewers that actually changed).
func (l *Ledger) mutate(ev model.Event) (model.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if err := l.catchUp(); err != nil {
			return ev, err
		}

		next := ev
		next.OccurredAt = l.stamp()
		checked, noop, err := l.check(next)
		if err != nil || noop {
			return checked, err
		}

		if l.recorder != nil {
			err := l.recorder.Record(checked)
			if errors.Is(err, ErrJournalConflict) && attempt < maxRecordAttempts {
				continue
			}
			if err != nil {
				return checked, fmt.Errorf("recording %s: %w", checked.Kind, err)
			}
		}

		l.apply(checked)
		return checked, nil
	}
}

// catchUp applies events that other writers recorded since the last sync.
func (l *Ledger) catchUp() error {
	s, ok := l.recorder.(Syncer)
	if !ok {
		return nil
	}
	events, err := s.Pending()
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	return l.replay(events)
}

// Replay applies journaled events in order using their recorded times.
// The recorder is not invoked. On error the ledger holds every event
// before the failing one.
func (l *Ledger) Replay(events []model.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.replay(events)
}

func (l *Ledger) replay(events []model.Event) error {
	for _, ev := range events {
		checked, noop, err := l.check(ev)
		if err != nil {
			return fmt.Errorf("replaying event %d (%s): %w", ev.Seq, ev.Kind, err)
		}
		if noop {
			continue
		}
		l.apply(checked)
	}
	return nil
}

// check validates ev against the current state. It must not modify state.
func (l *Ledger) check(ev model.Event) (model.Event, bool, error) {
	switch ev.Kind {
	case model.EventAddFile:
		return ev, false, l.checkAddFile(ev)
	case model.EventDeleteFile:
		return ev, false, l.checkDeleteFile(ev)
	case model.EventAddFriend:
		return ev, false, l.checkAddFriend(ev)
	case model.EventRemoveFriend:
		return ev, false, l.checkRemoveFriend(ev)
	case model.EventApproveFile:
		return l.checkApprove(ev)
	case model.EventDisapproveFile:
		return l.checkDisapprove(ev)
	default:
		return ev, false, fmt.Errorf("unknown event kind %q: %w", ev.Kind, ErrInvalidArgument)
	}
}

// apply performs a checked event. It cannot fail.
func (l *Ledger) apply(ev model.Event) {
	switch ev.Kind {
	case model.EventAddFile:
		l.applyAddFile(ev)
	case model.EventDeleteFile:
		l.applyDeleteFile(ev)
	case model.EventAddFriend:
		l.applyAddFriend(ev)
	case model.EventRemoveFriend:
		l.applyRemoveFriend(ev)
	case model.EventApproveFile:
		l.applyApprove(ev)
	case model.EventDisapproveFile:
		l.applyDisapprove(ev)
	}
	if ev.OccurredAt.After(l.last) {
		l.last = ev.OccurredAt
	}
}
