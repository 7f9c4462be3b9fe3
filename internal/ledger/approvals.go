package ledger

import (
	"fmt"

	"drive-go/internal/model"
)

// ApproveFile lets each viewer see owner's file. Every viewer must be one
// of owner's friends or nothing is approved. Viewers that already hold an
// approval are skipped.
func (l *Ledger) ApproveFile(owner model.Account, locator string, viewers []model.Account) error {
	_, err := l.mutate(model.Event{
		Kind:    model.EventApproveFile,
		Actor:   owner,
		Locator: locator,
		Viewers: viewers,
	})
	return err
}

// DisapproveFile withdraws approvals. Viewers without one are skipped.
func (l *Ledger) DisapproveFile(owner model.Account, locator string, viewers []model.Account) error {
	_, err := l.mutate(model.Event{
		Kind:    model.EventDisapproveFile,
		Actor:   owner,
		Locator: locator,
		Viewers: viewers,
	})
	return err
}

func (l *Ledger) hasApproval(key fileKey, viewer model.Account) bool {
	_, ok := l.approvalSet[approvalKey{key, viewer}]
	return ok
}

// checkApprove narrows ev.Viewers to the new, de-duplicated grants.
func (l *Ledger) checkApprove(ev model.Event) (model.Event, bool, error) {
	key := fileKey{ev.Actor, ev.Locator}
	if !l.hasFile(ev.Actor, ev.Locator) {
		return ev, false, fmt.Errorf("%s/%s: %w", ev.Actor, ev.Locator, ErrFileNotFound)
	}

	seen := make(map[model.Account]struct{}, len(ev.Viewers))
	var grants []model.Account
	for _, v := range ev.Viewers {
		if v == "" {
			return ev, false, fmt.Errorf("empty viewer: %w", ErrInvalidArgument)
		}
		if !l.hasEdge(ev.Actor, v) {
			return ev, false, fmt.Errorf("%s is not a friend of %s: %w", v, ev.Actor, ErrNotAFriend)
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if !l.hasApproval(key, v) {
			grants = append(grants, v)
		}
	}

	ev.Viewers = grants
	return ev, len(grants) == 0, nil
}

// checkDisapprove narrows ev.Viewers to the approvals that exist.
func (l *Ledger) checkDisapprove(ev model.Event) (model.Event, bool, error) {
	key := fileKey{ev.Actor, ev.Locator}
	if !l.hasFile(ev.Actor, ev.Locator) {
		return ev, false, fmt.Errorf("%s/%s: %w", ev.Actor, ev.Locator, ErrFileNotFound)
	}

	seen := make(map[model.Account]struct{}, len(ev.Viewers))
	var revokes []model.Account
	for _, v := range ev.Viewers {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if l.hasApproval(key, v) {
			revokes = append(revokes, v)
		}
	}

	ev.Viewers = revokes
	return ev, len(revokes) == 0, nil
}

func (l *Ledger) applyApprove(ev model.Event) {
	key := fileKey{ev.Actor, ev.Locator}
	for _, v := range ev.Viewers {
		l.approvals[key] = append(l.approvals[key], v)
		l.approvalSet[approvalKey{key, v}] = struct{}{}
	}
}

func (l *Ledger) applyDisapprove(ev model.Event) {
	key := fileKey{ev.Actor, ev.Locator}
	for _, v := range ev.Viewers {
		l.revoke(key, v)
	}
}

// revoke drops a single approval if present.
func (l *Ledger) revoke(key fileKey, viewer model.Account) {
	if !l.hasApproval(key, viewer) {
		return
	}
	delete(l.approvalSet, approvalKey{key, viewer})

	viewers := l.approvals[key]
	for i, v := range viewers {
		if v == viewer {
			l.approvals[key] = append(viewers[:i:i], viewers[i+1:]...)
			break
		}
	}
	if len(l.approvals[key]) == 0 {
		delete(l.approvals, key)
	}
}
