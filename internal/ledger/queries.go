package ledger

import (
	"fmt"

	"drive-go/internal/model"
)

// GetApprovedFiles walks caller's friends in order and, for every friend
// allowed by the visibility model, lists that friend's files caller has
// been approved for. The two slices are index-aligned; an inner slice is
// empty when the friend has approved nothing for caller.
func (l *Ledger) GetApprovedFiles(caller model.Account) ([]model.Account, [][]model.File) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	friends := make([]model.Account, 0, len(l.friends[caller]))
	files := make([][]model.File, 0, len(l.friends[caller]))

	for _, f := range l.friends[caller] {
		if !l.visibleFrom(f, caller) {
			continue
		}
		friends = append(friends, f)
		files = append(files, l.approvedFor(f, caller))
	}
	return friends, files
}

// GetFriendsApprovalStatus splits owner's friends into those approved for
// the file and those not, keeping friend order in both.
func (l *Ledger) GetFriendsApprovalStatus(owner model.Account, locator string) (approved, notApproved []model.Account, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasFile(owner, locator) {
		return nil, nil, fmt.Errorf("%s/%s: %w", owner, locator, ErrFileNotFound)
	}

	key := fileKey{owner, locator}
	approved = []model.Account{}
	notApproved = []model.Account{}
	for _, f := range l.friends[owner] {
		if l.hasApproval(key, f) {
			approved = append(approved, f)
		} else {
			notApproved = append(notApproved, f)
		}
	}
	return approved, notApproved, nil
}

// CanView reports whether viewer may read owner's file: owners always can,
// anyone else needs the same standing GetApprovedFiles would give them.
func (l *Ledger) CanView(viewer, owner model.Account, locator string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.hasFile(owner, locator) {
		return false
	}
	if viewer == owner {
		return true
	}
	return l.hasEdge(viewer, owner) &&
		l.visibleFrom(owner, viewer) &&
		l.hasApproval(fileKey{owner, locator}, viewer)
}

// visibleFrom reports whether friend's files may show up for caller,
// given that caller already lists friend.
func (l *Ledger) visibleFrom(friend, caller model.Account) bool {
	if l.visibility == VisibilityDirected {
		return true
	}
	return l.hasEdge(friend, caller)
}

func (l *Ledger) approvedFor(owner, viewer model.Account) []model.File {
	out := []model.File{}
	for _, file := range l.files[owner] {
		if l.hasApproval(fileKey{owner, file.Locator}, viewer) {
			out = append(out, file)
		}
	}
	return out
}
