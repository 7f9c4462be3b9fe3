package drive

import (
	"fmt"

	"drive-go/internal/model"
)

// GetHistory returns the most recent mutating operations, newest first.
func (s *DriveService) GetHistory(limit int) ([]*model.Operation, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("no journal configured")
	}
	ops, err := s.journal.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
