package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mgdl/internal/config"
)

const component = "catalog"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ops holds the statements shared by Store and Tx.
type ops struct {
	q querier
}

// Store manages catalog persistence backed by SQLite.
type Store struct {
	ops
	db   *sql.DB
	path string
}

// Tx is a catalog view bound to one database transaction. It exposes the
// same reads and writes as Store; all of them commit or roll back together.
type Tx struct {
	ops
}

// Open initializes or connects to the catalog database under the configured
// state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.CatalogPath())
}

// OpenPath opens the catalog at an explicit filesystem path.
func OpenPath(dbPath string) (*Store, error) {
	// modernc applies _pragma parameters to every pooled connection, which
	// keeps foreign_keys enforced regardless of which connection runs a query.
	dsn := "file:" + dbPath + "?" + strings.Join([]string{
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
	}, "&")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect sqlite db: %w", err)
	}

	store := &Store{ops: ops{q: db}, db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise. A busy database is retried with
// backoff before fn is invoked.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	ctx = ensureContext(ctx)
	var sqlTx *sql.Tx
	if err := retryOnBusy(ctx, func() error {
		var beginErr error
		sqlTx, beginErr = s.db.BeginTx(ctx, nil)
		return beginErr
	}); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&Tx{ops: ops{q: sqlTx}}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// AddManga upserts a manga together with its full chapter list in one
// transaction and returns the stored manga carrying its stable id.
func (s *Store) AddManga(ctx context.Context, manga Manga, chapters []Chapter) (Manga, error) {
	var stored Manga
	err := s.WithTx(ctx, func(tx *Tx) error {
		var err error
		stored, err = tx.UpsertManga(ctx, manga)
		if err != nil {
			return err
		}
		return tx.UpsertChapters(ctx, stored.ID, chapters)
	})
	if err != nil {
		return Manga{}, err
	}
	return stored, nil
}

// UpsertChapters writes a chapter batch atomically.
func (s *Store) UpsertChapters(ctx context.Context, mangaID string, chapters []Chapter) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		return tx.UpsertChapters(ctx, mangaID, chapters)
	})
}

// Counts returns the number of manga and chapter rows.
func (s *Store) Counts(ctx context.Context) (mangas, chapters int, err error) {
	ctx = ensureContext(ctx)
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mangas").Scan(&mangas); err != nil {
		return 0, 0, fmt.Errorf("count mangas: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chapters").Scan(&chapters); err != nil {
		return 0, 0, fmt.Errorf("count chapters: %w", err)
	}
	return mangas, chapters, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := range busyRetryAttempts {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}
