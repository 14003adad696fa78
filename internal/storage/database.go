package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/conorfennell/srs/internal/domain"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// MemoryPath opens a private in-memory database. It cannot be restored into.
const MemoryPath = ":memory:"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB represents a wrapper around the SQL database connection.
//
// Transactions hold gate for reading; Snapshot and Restore need it
// exclusively and fail fast instead of waiting. Writers are serialized by
// write so a read-modify-write never has to upgrade a shared lock.
type DB struct {
	path  string
	gate  sync.RWMutex
	write sync.Mutex
	conn  *sqlx.DB
	// lost is set when the connection could not be reopened after a
	// restore. Every call fails until a later Restore succeeds.
	lost error
}

var _ domain.Store = (*DB)(nil)

// Open creates a new database connection and ensures the schema is up to date.
func Open(path string) (*DB, error) {
	conn, err := openConn(path)
	if err != nil {
		return nil, err
	}
	return &DB{path: path, conn: conn}, nil
}

func openConn(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if path == MemoryPath {
		return path + "?" + strings.Join(pragmas, "&")
	}
	pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	return "file:" + path + "?" + strings.Join(pragmas, "&")
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.gate.Lock()
	defer db.gate.Unlock()
	return db.conn.Close()
}

// Update runs fn inside a read-write transaction. Writers are serialized.
func (db *DB) Update(ctx context.Context, fn func(tx domain.Tx) error) error {
	db.gate.RLock()
	defer db.gate.RUnlock()
	if err := db.unavailable(); err != nil {
		return err
	}
	db.write.Lock()
	defer db.write.Unlock()
	return db.run(ctx, fn)
}

// View runs fn inside a read transaction. Its changes, if any, are rolled back.
func (db *DB) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	db.gate.RLock()
	defer db.gate.RUnlock()
	if err := db.unavailable(); err != nil {
		return err
	}

	sqlTx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer sqlTx.Rollback()

	return fn(&Tx{tx: sqlTx})
}

func (db *DB) run(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// unavailable reports why the connection is gone, if it is. Callers hold gate.
func (db *DB) unavailable() error {
	if db.lost == nil {
		return nil
	}
	return fmt.Errorf("%w: database %s is unavailable: %w", domain.ErrStorage, db.path, db.lost)
}

// storageErr marks a driver failure so callers can tell it apart from a
// precondition violation.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", domain.ErrStorage, op, err)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
