package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/settle"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

// SettlementService implements api.SettlementServiceHandler.
type SettlementService struct {
	api.UnimplementedSettlementServiceHandler
	store           storage.Store
	rates           *currency.RateTable
	defaultCurrency string
	metrics         *metrics.Metrics
}

// NewSettlementService creates a SettlementService. rates may be nil, in which
// case amounts are never converted. m may be nil.
func NewSettlementService(store storage.Store, rates *currency.RateTable, defaultCurrency string, m *metrics.Metrics) *SettlementService {
	return &SettlementService{
		store:           store,
		rates:           rates,
		defaultCurrency: strings.ToUpper(defaultCurrency),
		metrics:         m,
	}
}

// converter picks the rate table for target.
func (s *SettlementService) converter(target string) (settle.Converter, error) {
	if !currency.ValidCode(target) {
		return nil, fmt.Errorf("%w: %q", currency.ErrUnknownCurrency, target)
	}
	if s.rates == nil {
		return settle.Identity, nil
	}
	table, err := s.rates.Rebase(target)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// GetSettlementPlan simplifies the caller's pending splits into the fewest
// payments, expressed in the requested currency.
func (s *SettlementService) GetSettlementPlan(ctx context.Context, req *connect.Request[api.GetSettlementPlanRequest]) (*connect.Response[api.GetSettlementPlanResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.GroupID != "" {
		if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
			return nil, err
		}
	}

	target := strings.ToUpper(req.Msg.Currency)
	if target == "" {
		target = s.defaultCurrency
	}
	convert, err := s.converter(target)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	pending, err := s.store.ListPendingSplits(ctx, userID, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetSettlementPlan: failed to load splits", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	splits := make([]settle.Split, len(pending))
	for i, p := range pending {
		splits[i] = settle.Split{
			ID:         p.ID,
			DebtorID:   p.UserID,
			CreditorID: p.OwnerID,
			Amount:     p.Amount,
			Currency:   p.Currency,
			PayerName:  p.CounterpartyName,
		}
	}

	ledger := settle.Net(splits, userID, convert, target)
	plan := ledger.Settle()
	owes, owed := ledger.Exposure(userID)
	s.metrics.ObservePlan(len(plan))

	slog.Info("Settlement plan computed",
		"user_id", userID,
		"group_id", req.Msg.GroupID,
		"currency", target,
		"splits", len(splits),
		"payments", len(plan),
	)

	resp := &api.GetSettlementPlanResponse{
		Currency:      target,
		Payments:      make([]*api.Payment, len(plan)),
		TotalOwed:     settle.Round(owes),
		TotalOwedToMe: settle.Round(owed),
	}
	for i, p := range plan {
		resp.Payments[i] = &api.Payment{
			From:     p.From,
			FromName: p.FromName,
			To:       p.To,
			ToName:   p.ToName,
			Amount:   p.Amount,
			SplitIDs: p.SplitIDs,
		}
	}
	return connect.NewResponse(resp), nil
}

// RecordSettlement records a payment between the caller and another user and
// marks the listed splits paid. Every listed split must be owed by the payer,
// the caller must be its debtor or creditor, and it must belong to the
// settlement's group when one is given.
func (s *SettlementService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	msg := req.Msg

	settlement := &models.Settlement{
		GroupID:    msg.GroupID,
		FromUserID: msg.FromUserID,
		ToUserID:   msg.ToUserID,
		Amount:     settle.Round(msg.Amount),
		CreatedBy:  userID,
		Note:       strings.TrimSpace(msg.Note),
	}
	if err := settlement.Validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if !settlement.Involves(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotParty)
	}

	code := strings.ToUpper(msg.Currency)
	if code == "" {
		code = s.defaultCurrency
	}
	if !currency.ValidCode(code) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", currency.ErrUnknownCurrency, msg.Currency))
	}

	if msg.GroupID != "" {
		if _, err := memberGroup(ctx, s.store, msg.GroupID, userID); err != nil {
			return nil, err
		}
	}

	// Splits already paid are linked but not counted as settled again.
	var pendingBefore int64
	splitIDs := make([]string, 0, len(msg.SplitIDs))
	seen := make(map[string]bool, len(msg.SplitIDs))
	for _, id := range msg.SplitIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		split, err := s.store.GetSplit(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		if err != nil {
			return nil, storageError(err)
		}
		if split.UserID != msg.FromUserID {
			return nil, connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("split %s is not owed by %s", id, msg.FromUserID))
		}
		// Same rule as SettleSplit: only the debtor or the creditor clears a split.
		if userID != split.UserID && userID != split.OwnerID {
			return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("%w: %s", errNotParty, id))
		}
		if msg.GroupID != "" && split.GroupID != msg.GroupID {
			return nil, connect.NewError(connect.CodeInvalidArgument,
				fmt.Errorf("split %s is not in group %s", id, msg.GroupID))
		}
		if !split.IsPaid {
			pendingBefore++
		}
		splitIDs = append(splitIDs, id)
	}

	settlement.Currency = code
	settlement.SplitIDs = splitIDs
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "error", err)
		return nil, storageError(err)
	}
	s.metrics.AddSettledSplits(pendingBefore)

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"from", settlement.FromUserID,
		"to", settlement.ToUserID,
		"amount", settlement.Amount,
		"splits_settled", pendingBefore,
	)

	return connect.NewResponse(&api.RecordSettlementResponse{
		Settlement:    toAPISettlement(settlement),
		SplitsSettled: pendingBefore,
	}), nil
}

// ListSettlements lists a group's settlements, or the caller's own when no
// group is given.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	var settlements []*models.Settlement
	if req.Msg.GroupID != "" {
		if _, err := memberGroup(ctx, s.store, req.Msg.GroupID, userID); err != nil {
			return nil, err
		}
		settlements, err = s.store.ListSettlementsByGroup(ctx, req.Msg.GroupID)
	} else {
		settlements, err = s.store.ListSettlementsForUser(ctx, userID)
	}
	if err != nil {
		slog.Error("ListSettlements failed", "user_id", userID, "error", err)
		return nil, storageError(err)
	}

	resp := &api.ListSettlementsResponse{Settlements: make([]*api.Settlement, len(settlements))}
	for i, st := range settlements {
		resp.Settlements[i] = toAPISettlement(st)
	}
	return connect.NewResponse(resp), nil
}
