// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a group. ID and CreatedAt are assigned when empty,
	// and the creator is always added as a member.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// AddGroupMembers adds users to a group, ignoring existing members.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error
}

// LedgerStore persists transactions, their splits, and settlements.
type LedgerStore interface {
	// CreateTransaction persists a transaction together with its splits.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)

	// GetSplit returns a single split joined with its transaction.
	GetSplit(ctx context.Context, splitID string) (*models.PendingSplit, error)

	// ListPendingSplits returns unpaid splits where viewerID is the debtor or the
	// transaction owner, newest first. A non-empty groupID restricts the result
	// to that group's transactions.
	ListPendingSplits(ctx context.Context, viewerID, groupID string) ([]models.PendingSplit, error)

	// MarkSplitsPaid marks the given splits paid and returns how many changed.
	MarkSplitsPaid(ctx context.Context, splitIDs []string) (int64, error)

	// CreateSettlement records a settlement and marks its splits paid atomically.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
	ListSettlementsForUser(ctx context.Context, userID string) ([]*models.Settlement, error)
}

// Store defines the full storage surface used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	LedgerStore

	// Close releases any resources held by the store.
	Close() error
}
