package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
)

// testEnv is a running server with every service mounted and one client each.
type testEnv struct {
	store      *sqlite.SQLiteStore
	metrics    *metrics.Metrics
	auth       api.AuthServiceClient
	groups     api.GroupServiceClient
	expenses   api.ExpenseServiceClient
	settlement api.SettlementServiceClient
}

// testUser is a registered account and its session token.
type testUser struct {
	ID    string
	Email string
	Token string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	rates, err := currency.NewRateTable("USD", map[string]float64{"EUR": 0.5, "INR": 80})
	if err != nil {
		t.Fatalf("failed to create rate table: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	m := metrics.New()

	opts := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager, api.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(
		NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger), opts))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store), opts))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, "USD"), opts))
	mux.Handle(api.NewSettlementServiceHandler(NewSettlementService(store, rates, "USD", m), opts))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:      store,
		metrics:    m,
		auth:       api.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:     api.NewGroupServiceClient(http.DefaultClient, server.URL),
		expenses:   api.NewExpenseServiceClient(http.DefaultClient, server.URL),
		settlement: api.NewSettlementServiceClient(http.DefaultClient, server.URL),
	}
}

func (e *testEnv) register(t *testing.T, email, name string) testUser {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return testUser{ID: resp.Msg.User.ID, Email: email, Token: resp.Msg.Token}
}

// as builds a request authenticated as u.
func as[T any](u testUser, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+u.Token)
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("code: expected %v, got %v (%v)", want, got, err)
	}
}
