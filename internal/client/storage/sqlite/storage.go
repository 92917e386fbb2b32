package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage is the client's Local Persistent Store.
// A single connection serializes every write, so each transaction observes
// and produces whole rows only.
type Storage struct {
	db *sql.DB
}

var _ storage.Store = (*Storage)(nil)

// New opens the local store at dbPath and applies migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", storage.ErrStoreUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w: %w", storage.ErrStoreUnavailable, err)
	}

	// Один writer на все соединение: мутации одной строки выполняются строго по очереди
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w: %w", storage.ErrStoreUnavailable, err)
		}
	}

	s := &Storage{db: db}

	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w: %w", storage.ErrStoreUnavailable, err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// runMigrations не трогает глобальное состояние goose: серверное хранилище
// и тесты открывают базы параллельно
func (s *Storage) runMigrations(ctx context.Context) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Wipe removes every row and cursor
func (s *Storage) Wipe(ctx context.Context) error {
	return s.withTx(ctx, "wipe", func(tx *sql.Tx) error {
		for _, table := range []string{"highscores", "stats", "stat_events", "resources", "sync_cursors"} {
			// имена таблиц фиксированы, пользовательский ввод сюда не попадает
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// GetCursor returns the last server-acknowledged sync date of the domain
func (s *Storage) GetCursor(ctx context.Context, domain models.Domain) (time.Time, error) {
	var millis int64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_sync_date FROM sync_cursors WHERE domain = ?`, string(domain),
	).Scan(&millis)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, unavailable("get cursor", err)
	}

	return fromMillis(millis), nil
}

// advanceCursor never moves the cursor backwards
func advanceCursor(ctx context.Context, tx *sql.Tx, domain models.Domain, syncDate time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_cursors (domain, last_sync_date) VALUES (?, ?)
		ON CONFLICT (domain) DO UPDATE SET last_sync_date = MAX(last_sync_date, excluded.last_sync_date)
	`, string(domain), toMillis(syncDate))
	if err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction. Errors returned by fn that are not
// storage sentinels are reported as ErrStoreUnavailable.
func (s *Storage) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrStoreUnavailable) {
			return err
		}
		return unavailable(op, err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}

	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, storage.ErrStoreUnavailable, err)
}

// Helper functions for bool/int and time conversion
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(millis int64) time.Time {
	if millis == 0 {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}
