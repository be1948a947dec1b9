package models

import (
	"errors"
	"fmt"
)

var ErrInvalidSettlement = errors.New("invalid settlement")

// Settlement is a recorded payment from FromUserID to ToUserID. Recording it
// marks SplitIDs paid.
type Settlement struct {
	ID string

	// GroupID is empty when the settlement is not scoped to a group.
	GroupID string

	FromUserID string
	ToUserID   string
	Amount     float64
	Currency   string
	SplitIDs   []string

	// CreatedAt is a Unix timestamp; CreatedBy is the user who recorded it.
	CreatedAt int64
	CreatedBy string

	Note string
}

// Involves reports whether userID paid or received the settlement.
func (s *Settlement) Involves(userID string) bool {
	return userID != "" && (s.FromUserID == userID || s.ToUserID == userID)
}

// Validate checks the parties and the amount.
func (s *Settlement) Validate() error {
	switch {
	case s.FromUserID == "" || s.ToUserID == "":
		return fmt.Errorf("%w: payer and payee are required", ErrInvalidSettlement)
	case s.FromUserID == s.ToUserID:
		return fmt.Errorf("%w: payer and payee are the same user", ErrInvalidSettlement)
	case s.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidSettlement)
	}
	return nil
}
