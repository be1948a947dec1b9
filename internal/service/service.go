// Package service implements the settleup connect services on top of storage.
package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

var (
	errNotMember = errors.New("caller is not a member of this group")
	errNotParty  = errors.New("caller is not a party to this split")
)

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// storageError maps a storage failure onto a connect code.
func storageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// memberGroup loads groupID and checks that userID belongs to it.
func memberGroup(ctx context.Context, groups storage.GroupStore, groupID, userID string) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id is required"))
	}
	group, err := groups.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storageError(err)
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	return group, nil
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:         s.ID,
		GroupID:    s.GroupID,
		FromUserID: s.FromUserID,
		ToUserID:   s.ToUserID,
		Amount:     s.Amount,
		Currency:   s.Currency,
		SplitIDs:   s.SplitIDs,
		CreatedAt:  s.CreatedAt,
		CreatedBy:  s.CreatedBy,
		Note:       s.Note,
	}
}

func toAPIPendingSplit(p *models.PendingSplit) *api.PendingSplit {
	return &api.PendingSplit{
		ID:               p.ID,
		TransactionID:    p.TransactionID,
		DebtorID:         p.UserID,
		CreditorID:       p.OwnerID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Description:      p.Description,
		GroupID:          p.GroupID,
		CreatedAt:        p.CreatedAt,
		CounterpartyName: p.CounterpartyName,
		IsPaid:           p.IsPaid,
	}
}
