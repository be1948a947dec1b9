package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/server"
	"github.com/mmynk/settleup/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the settleup RPC server",
		Long: `Run the HTTP server exposing the Auth, Group, Expense and Settlement
Connect services, plus /healthz and /metrics.

Example:
  SETTLEUP_AUTH_JWT_SECRET=change-me settleup serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()
			slog.Info("Storage initialized", "database", cfg.Database.Path)

			var rates *currency.RateTable
			if cfg.Currency.RatesFile != "" {
				rates, err = currency.LoadRates(cfg.Currency.RatesFile)
				if err != nil {
					return err
				}
				slog.Info("Exchange rates loaded", "base", rates.Base, "currencies", len(rates.Rates))
			} else {
				slog.Warn("No rates file configured; plans will not convert currencies")
			}

			staticPath := cfg.Server.StaticPath
			if staticPath != "" {
				if staticPath, err = filepath.Abs(staticPath); err != nil {
					return fmt.Errorf("failed to resolve static path: %w", err)
				}
				slog.Info("Serving static files", "path", staticPath)
			}

			handler := server.NewHandler(server.Deps{
				Store:           store,
				JWT:             auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
				Rates:           rates,
				DefaultCurrency: cfg.Currency.Default,
				Metrics:         metrics.New(),
				Logger:          slog.Default(),
				StaticPath:      staticPath,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, &http.Server{
				Addr:              cfg.Addr(),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (overrides server.port)")
	return cmd
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
