package ledger

import (
	"fmt"

	"drive-go/internal/model"
)

// AddFriend records that subject added object as a friend.
func (l *Ledger) AddFriend(subject, object model.Account) error {
	_, err := l.mutate(model.Event{
		Kind:   model.EventAddFriend,
		Actor:  subject,
		Target: object,
	})
	return err
}

// RemoveFriend deletes the subject -> object edge and revokes every
// approval between the two accounts, in either direction. Adding the
// friend back does not restore them.
func (l *Ledger) RemoveFriend(subject, object model.Account) error {
	_, err := l.mutate(model.Event{
		Kind:   model.EventRemoveFriend,
		Actor:  subject,
		Target: object,
	})
	return err
}

// GetFriends returns subject's friends in the order they were added.
func (l *Ledger) GetFriends(subject model.Account) []model.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Account, len(l.friends[subject]))
	copy(out, l.friends[subject])
	return out
}

// IsMutual reports whether a and b have each added the other.
func (l *Ledger) IsMutual(a, b model.Account) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.hasEdge(a, b) && l.hasEdge(b, a)
}

func (l *Ledger) hasEdge(subject, object model.Account) bool {
	_, ok := l.friendSet[edge{subject, object}]
	return ok
}

func (l *Ledger) checkAddFriend(ev model.Event) error {
	if ev.Actor == "" || ev.Target == "" {
		return fmt.Errorf("both accounts are required: %w", ErrInvalidArgument)
	}
	if ev.Actor == ev.Target {
		return fmt.Errorf("%s: %w", ev.Actor, ErrSelfFriend)
	}
	if l.hasEdge(ev.Actor, ev.Target) {
		return fmt.Errorf("%s -> %s: %w", ev.Actor, ev.Target, ErrDuplicateFriend)
	}
	return nil
}

func (l *Ledger) checkRemoveFriend(ev model.Event) error {
	if !l.hasEdge(ev.Actor, ev.Target) {
		return fmt.Errorf("%s -> %s: %w", ev.Actor, ev.Target, ErrFriendNotFound)
	}
	return nil
}

func (l *Ledger) applyAddFriend(ev model.Event) {
	l.friends[ev.Actor] = append(l.friends[ev.Actor], ev.Target)
	l.friendSet[edge{ev.Actor, ev.Target}] = struct{}{}
}

func (l *Ledger) applyRemoveFriend(ev model.Event) {
	friends := l.friends[ev.Actor]
	for i, f := range friends {
		if f == ev.Target {
			l.friends[ev.Actor] = append(friends[:i:i], friends[i+1:]...)
			break
		}
	}
	if len(l.friends[ev.Actor]) == 0 {
		delete(l.friends, ev.Actor)
	}
	delete(l.friendSet, edge{ev.Actor, ev.Target})

	for _, f := range l.files[ev.Actor] {
		l.revoke(fileKey{ev.Actor, f.Locator}, ev.Target)
	}
	for _, f := range l.files[ev.Target] {
		l.revoke(fileKey{ev.Target, f.Locator}, ev.Actor)
	}
}
