// Package main runs a local GitHub gist emulator for development and testing.
//
// @title Gist API Emulator
// @version 1.0
// @description Local emulator of the GitHub gist endpoints used by debtctl
//
// @host localhost:8091
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" or "token" followed by a space and the access token
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/shunichi-ikebuchi/debt-tracker/emulator/api"
	"github.com/shunichi-ikebuchi/debt-tracker/emulator/store"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/gist"
)

const (
	defaultPort   = "8091"
	defaultDBPath = "./data/gists.db"
	defaultToken  = "emulator-token"
	defaultLogin  = "emulator"
	defaultGistID = "debts"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	port := getenv("PORT", defaultPort)
	dbPath := getenv("DB_PATH", defaultDBPath)
	token := getenv("EMULATOR_TOKEN", defaultToken)
	login := getenv("EMULATOR_LOGIN", defaultLogin)
	gistID := getenv("EMULATOR_GIST_ID", defaultGistID)

	truncateAt := 0
	if v := os.Getenv("EMULATOR_TRUNCATE_AT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid EMULATOR_TRUNCATE_AT", "value", v, "error", err)
			os.Exit(1)
		}
		truncateAt = n
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err, "db_path", dbPath)
		os.Exit(1)
	}

	st, err := store.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize store", "error", err, "db_path", dbPath)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	slog.Info("database initialized", "db_path", dbPath)

	if err := seed(st, token, login, gistID); err != nil {
		slog.Error("failed to seed store", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%s", port)
	slog.Info("starting gist emulator", "addr", addr, "gist_id", gistID, "login", login)

	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(st, api.Options{TruncateAt: truncateAt, RequestLogging: true}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		if err := server.Close(); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// seed registers the access token and creates the gist holding an empty
// debtor list unless it already exists.
func seed(st *store.Store, token, login, gistID string) error {
	if err := st.PutToken(token, login); err != nil {
		return fmt.Errorf("failed to register token: %w", err)
	}

	if _, err := st.GetGist(gistID); err == nil {
		slog.Info("gist already present", "gist_id", gistID)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	files := map[string]string{gist.DefaultFilename: "[]"}
	if _, err := st.CreateGist(gistID, login, "debt tracker data", files); err != nil {
		return fmt.Errorf("failed to create gist: %w", err)
	}
	slog.Info("gist created", "gist_id", gistID, "filename", gist.DefaultFilename)
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
