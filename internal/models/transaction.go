package models

// Transaction is an expense paid by OwnerID and shared with other users.
// The owner is the creditor of every split of the transaction.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// OwnerID is the user who paid.
	OwnerID string

	// GroupID optionally scopes the transaction to a group.
	GroupID string

	Description string

	// Amount is the full amount paid, in Currency.
	Amount float64

	// Currency is the ISO 4217 code the transaction was paid in.
	Currency string

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64

	// Splits are the shares owed to the owner.
	Splits []Split
}

// Split is one debtor's share of a transaction.
type Split struct {
	ID            string
	TransactionID string

	// UserID is the debtor.
	UserID string

	// Amount is the share, in the transaction's currency.
	Amount float64

	IsPaid bool

	// PaidAt is the Unix timestamp the split was marked paid, 0 while pending.
	PaidAt int64
}

// PendingSplit is an unpaid split joined with the transaction it belongs to.
type PendingSplit struct {
	Split

	// OwnerID is the creditor (the transaction owner).
	OwnerID string

	Currency    string
	Description string
	GroupID     string
	CreatedAt   int64

	// CounterpartyName is the display name of the other party as seen by the
	// viewer who listed the split: the owner when the viewer is the debtor,
	// otherwise the debtor.
	CounterpartyName string
}
