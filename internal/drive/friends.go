package drive

import (
	"fmt"

	"drive-go/internal/model"
)

// AddFriend adds friend to account's friend list.
func (s *DriveService) AddFriend(account, friend model.Account) error {
	if err := s.ledger.AddFriend(account, friend); err != nil {
		return fmt.Errorf("adding friend: %w", err)
	}
	if s.ledger.IsMutual(account, friend) {
		s.logger.Info("friendship is now mutual", "account", account, "friend", friend)
	} else {
		s.logger.Info("friend added", "account", account, "friend", friend)
	}
	return nil
}

// RemoveFriend removes friend and revokes everything account shared with them.
func (s *DriveService) RemoveFriend(account, friend model.Account) error {
	if err := s.ledger.RemoveFriend(account, friend); err != nil {
		return fmt.Errorf("removing friend: %w", err)
	}
	s.logger.Info("friend removed", "account", account, "friend", friend)
	return nil
}

// Friend is one entry of a friend listing.
type Friend struct {
	Account model.Account
	Mutual  bool
}

// Friends lists account's friends in the order they were added.
func (s *DriveService) Friends(account model.Account) []Friend {
	accounts := s.ledger.GetFriends(account)
	out := make([]Friend, len(accounts))
	for i, a := range accounts {
		out[i] = Friend{Account: a, Mutual: s.ledger.IsMutual(account, a)}
	}
	return out
}
