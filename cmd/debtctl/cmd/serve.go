package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/api"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/overdue"
)

var serveAddr string

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard JSON API",
	Long: `Serve the debtor list, spreadsheet rows and summaries over HTTP.

Example:
  debtctl serve --addr :8090
  curl localhost:8090/api/summary?year=2024

POST /api/overdue/check posts overdue installments to OVERDUE_WEBHOOK_URL and
can be called by a scheduler.`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: SERVER_ADDR)")
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(ctx)
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.ServerAddr
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	handler := api.NewHandler(a.repo, logger,
		api.WithNotifier(overdue.NewNotifier(a.cfg.Notify.WebhookURL, logger)),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			exitOnError(err, "server failed")
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}
}
