// Package server assembles the HTTP handler that fronts the connect services.
package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/service"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
)

// Deps are the collaborators the handler is built from.
type Deps struct {
	Store           storage.Store
	JWT             *auth.JWTManager
	Rates           *currency.RateTable
	DefaultCurrency string
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	// StaticPath is a directory served on /. Empty disables static files.
	StaticPath string
}

// NewHandler returns the full HTTP handler, h2c-wrapped so connect clients
// can use HTTP/2 without TLS.
func NewHandler(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", d.Metrics.Handler())

	opts := connect.WithInterceptors(
		middleware.MetricsInterceptor(d.Metrics),
		middleware.RequireAuth(d.JWT, api.PublicProcedures...),
		middleware.LoggingInterceptor(),
	)

	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(d.Store), d.JWT, d.Store, d.Logger)
	r.Mount(api.NewAuthServiceHandler(authSvc, opts))
	r.Mount(api.NewGroupServiceHandler(service.NewGroupService(d.Store), opts))
	r.Mount(api.NewExpenseServiceHandler(service.NewExpenseService(d.Store, d.DefaultCurrency), opts))
	r.Mount(api.NewSettlementServiceHandler(
		service.NewSettlementService(d.Store, d.Rates, d.DefaultCurrency, d.Metrics), opts))

	if d.StaticPath != "" {
		r.NotFound(staticFiles(d.StaticPath))
	}

	return h2c.NewHandler(r, &http2.Server{})
}

// requestLogger logs every HTTP request with its chi request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("Request completed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// cors adds CORS headers for browser access to the connect endpoints.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// staticFiles serves the frontend, falling back to index.html for unknown paths.
func staticFiles(root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/settleup.v1.") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(root, filepath.Clean("/"+urlPath))

		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(root, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	}
}
