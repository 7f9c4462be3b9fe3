package model

import "time"

// Account is an opaque identity (for example a wallet address).
// The ledger never creates or validates accounts beyond non-emptiness.
type Account string

// File is a catalog entry owned by exactly one account.
type File struct {
	Owner       Account
	Locator     string    // Content identifier (SHA-256 hex for uploaded content), unique per owner
	DisplayName string    // Human label, not unique
	CreatedAt   time.Time // Logical insertion time
}

// EventKind names a ledger mutation.
type EventKind string

const (
	EventAddFile        EventKind = "add_file"
	EventDeleteFile     EventKind = "delete_file"
	EventAddFriend      EventKind = "add_friend"
	EventRemoveFriend   EventKind = "remove_friend"
	EventApproveFile    EventKind = "approve_file"
	EventDisapproveFile EventKind = "disapprove_file"
)

// Event describes one successful ledger mutation. Replaying a journal of
// events in Seq order rebuilds the ledger exactly.
type Event struct {
	Seq         int64     // Journal sequence, assigned on append
	ID          string    // UUID
	Kind        EventKind
	Actor       Account   // File owner or friendship subject
	Target      Account   // Friendship object (friend events only)
	Locator     string    // File events and approval events
	DisplayName string    // add_file only
	Viewers     []Account // approve_file / disapprove_file only
	OccurredAt  time.Time
}

// Operation is an audit row for a CLI command that mutated the journal.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Account    Account
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
}
