package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/config"
	"github.com/colonyops/marginalia/internal/core/logging"
	"github.com/colonyops/marginalia/internal/core/reader"
	"github.com/colonyops/marginalia/internal/data/api"
	"github.com/colonyops/marginalia/internal/data/db"
	"github.com/colonyops/marginalia/internal/data/local"
	"github.com/colonyops/marginalia/internal/data/stores"
)

// App holds the services commands share. It is populated in the root
// Before hook; commands keep a pointer to it from registration.
type App struct {
	Config   *config.Config
	DB       *db.DB
	KV       *stores.KVStore
	Anchors  *stores.AnchorStore
	Progress *reader.KVProgress
}

// NewApp opens the database and builds the stores.
func NewApp(cfg *config.Config) (*App, error) {
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	kvStore := stores.NewKVStore(database)
	return &App{
		Config:   cfg,
		DB:       database,
		KV:       kvStore,
		Anchors:  stores.NewAnchorStore(database),
		Progress: reader.NewKVProgress(kvStore),
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// openDatabase opens the SQLite database, moving a corrupt file aside and
// starting over once.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("database is corrupt, moving it aside")
	if rerr := stores.RecoverFromCorruption(cfg.DataDir); rerr != nil {
		return nil, errors.Join(err, fmt.Errorf("recover database: %w", rerr))
	}
	return db.Open(cfg.DataDir, opts)
}

// Source overrides where books are read from.
type Source struct {
	File    string // a single Markdown file
	Library string // a directory of Markdown files
}

// Backend returns the backend for src, falling back to the configured mode.
// For a single file the book ID is returned as well.
func (a *App) Backend(src Source) (book.Backend, string, error) {
	cfg := a.Config

	switch {
	case src.File != "":
		if _, err := os.Stat(src.File); err != nil {
			return nil, "", fmt.Errorf("open book file: %w", err)
		}
		lib, id := local.NewFile(src.File, a.Anchors)
		return lib, id, nil
	case src.Library != "":
		return local.New(src.Library, cfg.Library.Patterns, a.Anchors), "", nil
	case cfg.Backend.Mode == config.ModeLocal:
		return local.New(cfg.Library.Dir, cfg.Library.Patterns, a.Anchors), "", nil
	default:
		return api.New(api.Options{
			BaseURL: cfg.Backend.URL,
			Token:   cfg.Backend.Token,
			Timeout: cfg.Backend.Timeout,
			Logger:  logging.Component("api"),
		}), "", nil
	}
}

// sourceLabel describes the backend for status output.
func (a *App) sourceLabel(src Source) string {
	switch {
	case src.File != "":
		return src.File
	case src.Library != "":
		return src.Library
	case a.Config.Backend.Mode == config.ModeLocal:
		return a.Config.Library.Dir
	default:
		return a.Config.Backend.URL
	}
}
