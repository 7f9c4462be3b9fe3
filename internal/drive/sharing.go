package drive

import (
	"fmt"

	"drive-go/internal/model"
)

// Share approves owner's file for every viewer, or for none of them.
func (s *DriveService) Share(owner model.Account, locator string, viewers []model.Account) error {
	if err := s.ledger.ApproveFile(owner, locator, viewers); err != nil {
		return fmt.Errorf("approving file: %w", err)
	}
	s.logger.Info("file shared", "owner", owner, "locator", locator, "viewers", len(viewers))
	return nil
}

// Unshare withdraws approvals for owner's file.
func (s *DriveService) Unshare(owner model.Account, locator string, viewers []model.Account) error {
	if err := s.ledger.DisapproveFile(owner, locator, viewers); err != nil {
		return fmt.Errorf("disapproving file: %w", err)
	}
	s.logger.Info("file unshared", "owner", owner, "locator", locator, "viewers", len(viewers))
	return nil
}

// ApprovalStatus is the owner's view of who can see one file.
type ApprovalStatus struct {
	Approved    []model.Account
	NotApproved []model.Account
}

// Status partitions owner's friends by approval for the file.
func (s *DriveService) Status(owner model.Account, locator string) (*ApprovalStatus, error) {
	approved, notApproved, err := s.ledger.GetFriendsApprovalStatus(owner, locator)
	if err != nil {
		return nil, fmt.Errorf("getting approval status: %w", err)
	}
	return &ApprovalStatus{Approved: approved, NotApproved: notApproved}, nil
}

// SharedGroup is one friend's files visible to the caller.
type SharedGroup struct {
	Friend model.Account
	Files  []model.File
}

// SharedWithMe lists, per friend, the files caller has been approved for.
func (s *DriveService) SharedWithMe(caller model.Account) []SharedGroup {
	friends, files := s.ledger.GetApprovedFiles(caller)
	out := make([]SharedGroup, len(friends))
	for i := range friends {
		out[i] = SharedGroup{Friend: friends[i], Files: files[i]}
	}
	return out
}
