// Package models defines the persisted domain records of settleup.
//
// # Records
//
//   - User: a registered account; the viewer of every settlement plan
//   - Group: a named set of users that share expenses
//   - Transaction: an expense paid by its owner and shared with others
//   - Split: one debtor's share of a transaction, paid or pending
//   - Settlement: a recorded transfer between two users that clears splits
//
// # Conventions
//
// Relationships use ID strings rather than pointers. Timestamps are Unix
// seconds. Amounts are float64 in the currency of the owning transaction;
// conversion to a viewer's currency happens at read time, never on write.
package models
