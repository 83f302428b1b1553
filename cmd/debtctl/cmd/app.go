package cmd

import (
	"context"
	"log/slog"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/config"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/db"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/filestore"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/gist"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/pathutil"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/repository"
)

// app holds what most commands need: configuration, paths, the history
// database and a repository over the configured store.
type app struct {
	cfg     *config.Config
	paths   *pathutil.PathResolver
	conn    *db.Connection
	history *db.History
	repo    *repository.Repository
}

func loadConfig() (*config.Config, *pathutil.PathResolver) {
	slog.Debug("Loading configuration")

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	paths := pathutil.New(pathutil.Config{
		DataRoot:     cfg.Storage.DataRoot,
		DatabasePath: cfg.Storage.HistoryDB,
		ExportsDir:   cfg.Storage.ExportsDir,
		DocumentPath: cfg.Storage.DocumentPath,
	})
	return cfg, paths
}

func openHistory(paths *pathutil.PathResolver) *db.Connection {
	dbPath := paths.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	return conn
}

// newApp connects to the configured store. It exits on any failure.
func newApp(ctx context.Context) *app {
	cfg, paths := loadConfig()

	if err := cfg.Validate(cfg.RequiredForStore()...); err != nil {
		exitOnError(err, "invalid configuration")
	}

	store := openStore(ctx, cfg, paths)

	conn := openHistory(paths)
	history := db.NewHistory(conn)

	return &app{
		cfg:     cfg,
		paths:   paths,
		conn:    conn,
		history: history,
		repo: repository.New(store,
			repository.WithLogger(slog.Default()),
			repository.WithHistory(history),
		),
	}
}

func openStore(ctx context.Context, cfg *config.Config, paths *pathutil.PathResolver) repository.Store {
	if cfg.Storage.Backend == config.BackendFile {
		slog.Debug("Using local document", "path", paths.GetDocumentPath())
		return filestore.New(paths.GetDocumentPath())
	}

	client, err := gist.NewClient(ctx, gist.ClientConfig{
		APIURL:   cfg.Gist.APIURL,
		Token:    cfg.Gist.Token,
		GistID:   cfg.Gist.ID,
		Filename: cfg.Gist.Filename,
		Timeout:  cfg.Gist.Timeout,
		Logger:   slog.Default(),
	})
	if gist.IsInvalidCredential(err) {
		exitOnError(err, "GIST_TOKEN was rejected; create a token with the gist scope")
	}
	exitOnError(err, "failed to connect to gist")

	slog.Debug("Connected to gist", "login", client.Login(), "gist_id", client.GistID())
	return client
}

func (a *app) Close() {
	if err := a.conn.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}
