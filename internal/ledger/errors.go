package ledger

import "errors"

// Precondition failures. Each one leaves the ledger unchanged and is never
// retried internally; callers match them with errors.Is.
var (
	ErrDuplicateFile   = errors.New("file already exists")
	ErrFileNotFound    = errors.New("file not found")
	ErrDuplicateFriend = errors.New("friend already added")
	ErrFriendNotFound  = errors.New("friend not found")
	ErrSelfFriend      = errors.New("cannot add yourself as a friend")
	ErrNotAFriend      = errors.New("viewer is not a friend")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ErrJournalConflict is returned by a Recorder when another writer appended
// to the journal after the last event the ledger saw. The ledger catches up
// and retries the mutation.
var ErrJournalConflict = errors.New("journal changed by another writer")
