package app

import "drive-go/internal/model"

// Operation tracks a CLI command that may mutate the journal.
// Operations are created in memory with ID=0. Only mutating commands
// persist them, which gives them an auto-increment ID from the database.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Account    model.Account
	Status     string // "success" or "error"
}

func NewOperation(operation string, account model.Account) *Operation {
	return &Operation{
		Operation: operation,
		Account:   account,
		Status:    "success",
	}
}

// Persisted returns true if this operation has been saved to the database.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}
