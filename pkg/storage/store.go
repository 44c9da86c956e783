package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"igtracker/pkg/config"
	errs "igtracker/pkg/errors"
	"igtracker/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Store is the SQLite-backed snapshot store. It owns the write path for
// tracked profiles, posts and their stats histories.
type Store struct {
	db     *sql.DB
	path   string
	logger logger.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at cfg.Path and applies the
// schema
func Open(ctx context.Context, cfg config.StorageConfig, log logger.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, errs.New(errs.ErrorTypeStoreUnavailable, "storage path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to create database directory", err)
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to open database", err)
	}
	// One connection serializes writers; transactions never touch s.db
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to connect to database", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to create schema", err)
	}

	log = logger.OrNop(log).WithField("component", "storage")
	log.DebugWithFields("database opened", map[string]interface{}{"path": cfg.Path})

	return &Store{
		db:     db,
		path:   cfg.Path,
		logger: log,
		now:    time.Now,
	}, nil
}

// dsn builds a modernc.org/sqlite DSN with per-connection pragmas
func dsn(cfg config.StorageConfig) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")

	return cfg.Path + "?" + q.Encode()
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// withTx runs fn in a transaction, committing on success
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.ErrorTypeStoreUnavailable, "failed to commit transaction", err)
	}
	return nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
