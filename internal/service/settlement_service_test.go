package service

import (
	"context"
	"math"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/settleup/pkg/api"
)

// settlementFixture: Alice paid 90 USD dinner in a group shared three ways,
// Bob paid a 20 EUR taxi outside the group shared with Alice.
type settlementFixture struct {
	env               *testEnv
	alice, bob, carol testUser
	groupID           string
	bobDinner         string
	carolDinner       string
	aliceTaxi         string
}

func setupSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	env := setupTestServer(t)
	ctx := context.Background()

	f := &settlementFixture{
		env:   env,
		alice: env.register(t, "alice@example.com", "Alice"),
		bob:   env.register(t, "bob@example.com", "Bob"),
		carol: env.register(t, "carol@example.com", "Carol"),
	}

	group, err := env.groups.CreateGroup(ctx, as(f.alice, &api.CreateGroupRequest{
		Name:         "Trip",
		MemberEmails: []string{"bob@example.com", "carol@example.com"},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	f.groupID = group.Msg.Group.ID

	dinner, err := env.expenses.CreateExpense(ctx, as(f.alice, &api.CreateExpenseRequest{
		GroupID:      f.groupID,
		Description:  "Dinner",
		Total:        90,
		Currency:     "USD",
		Participants: []string{f.alice.ID, f.bob.ID, f.carol.ID},
	}))
	if err != nil {
		t.Fatalf("CreateExpense(dinner) failed: %v", err)
	}
	f.bobDinner = dinner.Msg.Transaction.Splits[0].ID
	f.carolDinner = dinner.Msg.Transaction.Splits[1].ID

	taxi, err := env.expenses.CreateExpense(ctx, as(f.bob, &api.CreateExpenseRequest{
		Description:  "Taxi",
		Total:        20,
		Currency:     "EUR",
		Participants: []string{f.alice.ID, f.bob.ID},
	}))
	if err != nil {
		t.Fatalf("CreateExpense(taxi) failed: %v", err)
	}
	f.aliceTaxi = taxi.Msg.Transaction.Splits[0].ID

	return f
}

func assertPayment(t *testing.T, got *api.Payment, from, fromName, to, toName string, amount float64, splitIDs ...string) {
	t.Helper()
	if got.From != from || got.To != to {
		t.Errorf("payment: expected %s -> %s, got %s -> %s", from, to, got.From, got.To)
	}
	if got.FromName != fromName || got.ToName != toName {
		t.Errorf("names: expected %s -> %s, got %s -> %s", fromName, toName, got.FromName, got.ToName)
	}
	if math.Abs(got.Amount-amount) > 0.01 {
		t.Errorf("amount: expected %.2f, got %.2f", amount, got.Amount)
	}
	if len(got.SplitIDs) != len(splitIDs) {
		t.Fatalf("split IDs: expected %v, got %v", splitIDs, got.SplitIDs)
	}
	for i := range splitIDs {
		if got.SplitIDs[i] != splitIDs[i] {
			t.Errorf("split IDs: expected %v, got %v", splitIDs, got.SplitIDs)
		}
	}
}

func TestGetSettlementPlan(t *testing.T) {
	f := setupSettlementFixture(t)
	ctx := context.Background()

	t.Run("viewer is net creditor", func(t *testing.T) {
		resp, err := f.env.settlement.GetSettlementPlan(ctx, as(f.alice, &api.GetSettlementPlanRequest{}))
		if err != nil {
			t.Fatalf("GetSettlementPlan failed: %v", err)
		}
		plan := resp.Msg
		if plan.Currency != "USD" {
			t.Errorf("currency: expected USD, got %s", plan.Currency)
		}
		// Alice +60 -20 (10 EUR), Bob -30 +20, Carol -30.
		if len(plan.Payments) != 2 {
			t.Fatalf("payments: expected 2, got %d", len(plan.Payments))
		}
		assertPayment(t, plan.Payments[0], f.carol.ID, "Carol", f.alice.ID, "You", 30, f.carolDinner)
		assertPayment(t, plan.Payments[1], f.bob.ID, "Bob", f.alice.ID, "You", 10, f.bobDinner)

		if math.Abs(plan.TotalOwed-20) > 0.01 || math.Abs(plan.TotalOwedToMe-60) > 0.01 {
			t.Errorf("exposure: expected owed 20 / owed to me 60, got %.2f / %.2f", plan.TotalOwed, plan.TotalOwedToMe)
		}
	})

	t.Run("converted to EUR", func(t *testing.T) {
		resp, err := f.env.settlement.GetSettlementPlan(ctx, as(f.alice, &api.GetSettlementPlanRequest{Currency: "eur"}))
		if err != nil {
			t.Fatalf("GetSettlementPlan failed: %v", err)
		}
		if resp.Msg.Currency != "EUR" || len(resp.Msg.Payments) != 2 {
			t.Fatalf("unexpected plan: %+v", resp.Msg)
		}
		assertPayment(t, resp.Msg.Payments[0], f.carol.ID, "Carol", f.alice.ID, "You", 15, f.carolDinner)
		assertPayment(t, resp.Msg.Payments[1], f.bob.ID, "Bob", f.alice.ID, "You", 5, f.bobDinner)
	})

	t.Run("viewer is debtor", func(t *testing.T) {
		resp, err := f.env.settlement.GetSettlementPlan(ctx, as(f.bob, &api.GetSettlementPlanRequest{}))
		if err != nil {
			t.Fatalf("GetSettlementPlan failed: %v", err)
		}
		if len(resp.Msg.Payments) != 1 {
			t.Fatalf("payments: expected 1, got %d", len(resp.Msg.Payments))
		}
		assertPayment(t, resp.Msg.Payments[0], f.bob.ID, "You", f.alice.ID, "Alice", 10, f.bobDinner)
	})

	t.Run("restricted to group", func(t *testing.T) {
		resp, err := f.env.settlement.GetSettlementPlan(ctx, as(f.bob, &api.GetSettlementPlanRequest{GroupID: f.groupID}))
		if err != nil {
			t.Fatalf("GetSettlementPlan failed: %v", err)
		}
		if len(resp.Msg.Payments) != 1 {
			t.Fatalf("payments: expected 1, got %d", len(resp.Msg.Payments))
		}
		assertPayment(t, resp.Msg.Payments[0], f.bob.ID, "You", f.alice.ID, "Alice", 30, f.bobDinner)
	})

	t.Run("unsupported currency", func(t *testing.T) {
		_, err := f.env.settlement.GetSettlementPlan(ctx, as(f.alice, &api.GetSettlementPlanRequest{Currency: "GBP"}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("nothing pending", func(t *testing.T) {
		outsider := f.env.register(t, "dave@example.com", "Dave")
		resp, err := f.env.settlement.GetSettlementPlan(ctx, as(outsider, &api.GetSettlementPlanRequest{}))
		if err != nil {
			t.Fatalf("GetSettlementPlan failed: %v", err)
		}
		if len(resp.Msg.Payments) != 0 || resp.Msg.TotalOwed != 0 || resp.Msg.TotalOwedToMe != 0 {
			t.Errorf("expected empty plan, got %+v", resp.Msg)
		}

		_, err = f.env.settlement.GetSettlementPlan(ctx, as(outsider, &api.GetSettlementPlanRequest{GroupID: f.groupID}))
		assertCode(t, err, connect.CodePermissionDenied)
	})
}

func TestRecordSettlement(t *testing.T) {
	f := setupSettlementFixture(t)
	ctx := context.Background()

	resp, err := f.env.settlement.RecordSettlement(ctx, as(f.bob, &api.RecordSettlementRequest{
		GroupID:    f.groupID,
		FromUserID: f.bob.ID,
		ToUserID:   f.alice.ID,
		Amount:     30,
		SplitIDs:   []string{f.bobDinner, f.bobDinner},
		Note:       "cash",
	}))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	if resp.Msg.SplitsSettled != 1 {
		t.Errorf("splits settled: expected 1, got %d", resp.Msg.SplitsSettled)
	}
	if resp.Msg.Settlement.Currency != "USD" || resp.Msg.Settlement.CreatedBy != f.bob.ID {
		t.Errorf("unexpected settlement: %+v", resp.Msg.Settlement)
	}
	if got := testutil.ToFloat64(f.env.metrics.SettledSplits); got != 1 {
		t.Errorf("settled splits metric: expected 1, got %v", got)
	}

	// Only the taxi remains for Bob, now owed to him.
	plan, err := f.env.settlement.GetSettlementPlan(ctx, as(f.bob, &api.GetSettlementPlanRequest{}))
	if err != nil {
		t.Fatalf("GetSettlementPlan failed: %v", err)
	}
	if len(plan.Msg.Payments) != 1 {
		t.Fatalf("payments: expected 1, got %d", len(plan.Msg.Payments))
	}
	assertPayment(t, plan.Msg.Payments[0], f.alice.ID, "Alice", f.bob.ID, "You", 20, f.aliceTaxi)

	listed, err := f.env.settlement.ListSettlements(ctx, as(f.carol, &api.ListSettlementsRequest{GroupID: f.groupID}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(listed.Msg.Settlements) != 1 || listed.Msg.Settlements[0].Note != "cash" {
		t.Errorf("unexpected group settlements: %+v", listed.Msg.Settlements)
	}

	own, err := f.env.settlement.ListSettlements(ctx, as(f.carol, &api.ListSettlementsRequest{}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(own.Msg.Settlements) != 0 {
		t.Errorf("carol own settlements: expected 0, got %d", len(own.Msg.Settlements))
	}
}

func TestRecordSettlement_Errors(t *testing.T) {
	f := setupSettlementFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		user testUser
		req  *api.RecordSettlementRequest
		code connect.Code
	}{
		{"same user", f.bob, &api.RecordSettlementRequest{FromUserID: f.bob.ID, ToUserID: f.bob.ID, Amount: 5}, connect.CodeInvalidArgument},
		{"zero amount", f.bob, &api.RecordSettlementRequest{FromUserID: f.bob.ID, ToUserID: f.alice.ID}, connect.CodeInvalidArgument},
		{"caller not a party", f.carol, &api.RecordSettlementRequest{FromUserID: f.bob.ID, ToUserID: f.alice.ID, Amount: 5}, connect.CodePermissionDenied},
		{"split owed by someone else", f.alice, &api.RecordSettlementRequest{FromUserID: f.bob.ID, ToUserID: f.alice.ID, Amount: 5, SplitIDs: []string{f.carolDinner}}, connect.CodeInvalidArgument},
		{"payee is not the split's creditor", f.carol, &api.RecordSettlementRequest{FromUserID: f.bob.ID, ToUserID: f.carol.ID, Amount: 30, SplitIDs: []string{f.bobDinner}}, connect.CodePermissionDenied},
		{"split outside group", f.alice, &api.RecordSettlementRequest{GroupID: f.groupID, FromUserID: f.alice.ID, ToUserID: f.bob.ID, Amount: 10, SplitIDs: []string{f.aliceTaxi}}, connect.CodeInvalidArgument},
		{"unknown split", f.bob, &api.RecordSettlementRequest{FromUserID: f.bob.ID, ToUserID: f.alice.ID, Amount: 5, SplitIDs: []string{"missing"}}, connect.CodeInvalidArgument},
		{"bad currency", f.bob, &api.RecordSettlementRequest{FromUserID: f.bob.ID, ToUserID: f.alice.ID, Amount: 5, Currency: "DOLLARS"}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.env.settlement.RecordSettlement(ctx, as(tt.user, tt.req))
			assertCode(t, err, tt.code)
		})
	}
}

func TestRecordSettlement_OnlyPartiesClearSplits(t *testing.T) {
	f := setupSettlementFixture(t)
	ctx := context.Background()

	// Carol names herself payee to clear what Bob owes Alice.
	_, err := f.env.settlement.RecordSettlement(ctx, as(f.carol, &api.RecordSettlementRequest{
		FromUserID: f.bob.ID,
		ToUserID:   f.carol.ID,
		Amount:     30,
		SplitIDs:   []string{f.bobDinner},
	}))
	assertCode(t, err, connect.CodePermissionDenied)

	plan, err := f.env.settlement.GetSettlementPlan(ctx, as(f.bob, &api.GetSettlementPlanRequest{}))
	if err != nil {
		t.Fatalf("GetSettlementPlan failed: %v", err)
	}
	if len(plan.Msg.Payments) != 1 {
		t.Fatalf("payments: expected 1, got %d", len(plan.Msg.Payments))
	}
	assertPayment(t, plan.Msg.Payments[0], f.bob.ID, "You", f.alice.ID, "Alice", 10, f.bobDinner)

	// The creditor may record the payment on the debtor's behalf.
	resp, err := f.env.settlement.RecordSettlement(ctx, as(f.alice, &api.RecordSettlementRequest{
		GroupID:    f.groupID,
		FromUserID: f.bob.ID,
		ToUserID:   f.alice.ID,
		Amount:     30,
		SplitIDs:   []string{f.bobDinner},
	}))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	if resp.Msg.SplitsSettled != 1 {
		t.Errorf("splits settled: expected 1, got %d", resp.Msg.SplitsSettled)
	}
}
