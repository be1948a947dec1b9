package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

// ExpenseService implements api.ExpenseServiceHandler.
type ExpenseService struct {
	api.UnimplementedExpenseServiceHandler
	store           storage.Store
	defaultCurrency string
}

// NewExpenseService creates an ExpenseService. Expenses without a currency are
// recorded in defaultCurrency.
func NewExpenseService(store storage.Store, defaultCurrency string) *ExpenseService {
	return &ExpenseService{store: store, defaultCurrency: strings.ToUpper(defaultCurrency)}
}

// findNewParticipants returns participants that are not already in existingMembers.
func findNewParticipants(participants, existingMembers []string) []string {
	memberSet := make(map[string]bool, len(existingMembers))
	for _, m := range existingMembers {
		memberSet[m] = true
	}
	var newOnes []string
	for _, p := range participants {
		if !memberSet[p] {
			memberSet[p] = true
			newOnes = append(newOnes, p)
		}
	}
	return newOnes
}

// autoAddParticipantsToGroup adds any expense participants not already in the group.
func (s *ExpenseService) autoAddParticipantsToGroup(ctx context.Context, group *models.Group, participants []string) {
	newMembers := findNewParticipants(participants, group.Members)
	if len(newMembers) == 0 {
		return
	}
	if err := s.store.AddGroupMembers(ctx, group.ID, newMembers); err != nil {
		slog.Error("autoAddParticipantsToGroup: failed to add members", "group_id", group.ID, "error", err)
		return
	}
	slog.Info("Auto-added participants to group", "group_id", group.ID, "new_members", newMembers)
}

// CreateExpense records an expense paid by the caller. Every other participant
// gets a pending split owed to the caller.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	slog.Info("CreateExpense request received",
		"user_id", userID,
		"group_id", msg.GroupID,
		"participants", len(msg.Participants),
		"items", len(msg.Items),
	)

	if msg.Total <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("total must be positive"))
	}
	if len(msg.Participants) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("at least one participant is required"))
	}

	code := strings.ToUpper(msg.Currency)
	if code == "" {
		code = s.defaultCurrency
	}
	if !currency.ValidCode(code) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", currency.ErrUnknownCurrency, msg.Currency))
	}

	users, err := s.store.GetUsersByIDs(ctx, msg.Participants)
	if err != nil {
		return nil, storageError(err)
	}
	for _, p := range msg.Participants {
		if _, ok := users[p]; !ok {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown participant %s", p))
		}
	}

	var group *models.Group
	if msg.GroupID != "" {
		group, err = memberGroup(ctx, s.store, msg.GroupID, userID)
		if err != nil {
			return nil, err
		}
	}

	items := make([]calculator.Item, len(msg.Items))
	itemsSum := 0.0
	for i, item := range msg.Items {
		items[i] = calculator.Item{
			Description: item.Description,
			Amount:      item.Amount,
			AssignedTo:  item.AssignedTo,
		}
		itemsSum += item.Amount
	}

	subtotal := msg.Subtotal
	if subtotal == 0 {
		subtotal = msg.Total
		if len(items) > 0 {
			subtotal = itemsSum
		}
	}

	shares, err := calculator.SharesForTransaction(userID, items, msg.Total, subtotal, msg.Participants)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	tx := &models.Transaction{
		OwnerID:     userID,
		GroupID:     msg.GroupID,
		Description: strings.TrimSpace(msg.Description),
		Amount:      msg.Total,
		Currency:    code,
		Splits:      shares,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, storageError(err)
	}

	if group != nil {
		s.autoAddParticipantsToGroup(ctx, group, msg.Participants)
	}

	slog.Info("Expense created", "transaction_id", tx.ID, "splits", len(tx.Splits))

	out := &api.Transaction{
		ID:          tx.ID,
		OwnerID:     tx.OwnerID,
		GroupID:     tx.GroupID,
		Description: tx.Description,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		CreatedAt:   tx.CreatedAt,
		Splits:      make([]api.Split, len(tx.Splits)),
	}
	for i, sp := range tx.Splits {
		out.Splits[i] = api.Split{ID: sp.ID, UserID: sp.UserID, Amount: sp.Amount}
	}
	return connect.NewResponse(&api.CreateExpenseResponse{Transaction: out}), nil
}

// ListPendingSplits lists unpaid splits the caller owes or is owed.
func (s *ExpenseService) ListPendingSplits(ctx context.Context, req *connect.Request[api.ListPendingSplitsRequest]) (*connect.Response[api.ListPendingSplitsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID != "" {
		if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
			return nil, err
		}
	}

	pending, err := s.store.ListPendingSplits(ctx, userID, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListPendingSplits failed", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	resp := &api.ListPendingSplitsResponse{Splits: make([]*api.PendingSplit, len(pending))}
	for i := range pending {
		resp.Splits[i] = toAPIPendingSplit(&pending[i])
	}
	return connect.NewResponse(resp), nil
}

// SettleSplit marks one split paid. Either party to the split may do so.
func (s *ExpenseService) SettleSplit(ctx context.Context, req *connect.Request[api.SettleSplitRequest]) (*connect.Response[api.SettleSplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	split, err := s.store.GetSplit(ctx, req.Msg.SplitID)
	if err != nil {
		return nil, storageError(err)
	}
	if split.UserID != userID && split.OwnerID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotParty)
	}

	if !split.IsPaid {
		if _, err := s.store.MarkSplitsPaid(ctx, []string{split.ID}); err != nil {
			slog.Error("SettleSplit failed", "split_id", split.ID, "error", err)
			return nil, storageError(err)
		}
		slog.Info("Split settled", "split_id", split.ID, "user_id", userID)
	}

	split, err = s.store.GetSplit(ctx, split.ID)
	if err != nil {
		return nil, storageError(err)
	}
	if split.UserID == userID {
		// GetSplit names the debtor; the caller wants the creditor.
		owner, err := s.store.GetUserByID(ctx, split.OwnerID)
		if err == nil {
			split.CounterpartyName = owner.DisplayName
		}
	}
	return connect.NewResponse(&api.SettleSplitResponse{Split: toAPIPendingSplit(split)}), nil
}
