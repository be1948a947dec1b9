package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/storage/sqlite"
	"github.com/mmynk/settleup/pkg/api"
)

func newTestServer(t *testing.T, staticPath string) *httptest.Server {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(NewHandler(Deps{
		Store:           store,
		JWT:             auth.NewJWTManager("secret", time.Hour),
		DefaultCurrency: "USD",
		StaticPath:      staticPath,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, "")

	code, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	client := api.NewAuthServiceClient(srv.Client(), srv.URL)
	_, err := client.GetCurrentUser(context.Background(), connect.NewRequest(&api.GetCurrentUserRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	code, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `settleup_rpc_requests_total{code="unauthenticated",procedure="/settleup.v1.AuthService/GetCurrentUser"} 1`)
}

func TestRegisterThroughRouter(t *testing.T) {
	srv := newTestServer(t, "")
	ctx := context.Background()

	authClient := api.NewAuthServiceClient(srv.Client(), srv.URL)
	reg, err := authClient.Register(ctx, connect.NewRequest(&api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
	}))
	require.NoError(t, err)

	req := connect.NewRequest(&api.GetSettlementPlanRequest{})
	req.Header().Set("Authorization", "Bearer "+reg.Msg.Token)
	plan, err := api.NewSettlementServiceClient(srv.Client(), srv.URL).GetSettlementPlan(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "USD", plan.Msg.Currency)
	assert.Empty(t, plan.Msg.Payments)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, "")

	req, err := http.NewRequest(http.MethodOptions, srv.URL+api.SettlementServiceGetSettlementPlanProcedure, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(resp.Header.Get("Access-Control-Allow-Headers"), "Authorization"))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>settleup</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	srv := newTestServer(t, dir)

	code, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "settleup")

	_, body = get(t, srv.URL+"/app.js")
	assert.Contains(t, body, "console.log")

	_, body = get(t, srv.URL+"/groups/123")
	assert.Contains(t, body, "settleup")

	code, _ = get(t, srv.URL+"/settleup.v1.Nope/Call")
	assert.Equal(t, http.StatusNotFound, code)
}
