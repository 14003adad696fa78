package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/conorfennell/srs/internal/domain"
	"github.com/jmoiron/sqlx"
)

// Snapshot writes a consistent copy of the whole database file to w.
// It fails with ErrTransactionInProgress instead of waiting for running
// transactions to finish.
func (db *DB) Snapshot(ctx context.Context, w io.Writer) error {
	if !db.gate.TryLock() {
		return domain.ErrTransactionInProgress
	}
	defer db.gate.Unlock()
	if err := db.unavailable(); err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "srs-snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "snapshot.db")
	if _, err := db.conn.ExecContext(ctx, `VACUUM INTO ?`, file); err != nil {
		return storageErr("write snapshot", err)
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	return nil
}

// Restore replaces the whole database with the database file read from r.
// The incoming file is validated before anything is replaced. Restore needs
// exclusive access and fails with ErrTransactionInProgress otherwise.
func (db *DB) Restore(ctx context.Context, r io.Reader) error {
	if db.path == MemoryPath {
		return fmt.Errorf("%w: cannot restore into an in-memory database", domain.ErrInvalidInput)
	}
	if !db.gate.TryLock() {
		return domain.ErrTransactionInProgress
	}
	defer db.gate.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(db.path), ".srs-restore-*")
	if err != nil {
		return fmt.Errorf("failed to create restore file: %w", err)
	}
	tmpPath := tmp.Name()
	replaced := false
	defer func() {
		if !replaced {
			removeWithSidecars(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write restore file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write restore file: %w", err)
	}

	if err := validateStoreFile(ctx, tmpPath); err != nil {
		return err
	}

	// A lost connection is already closed; restoring brings the store back.
	if db.lost == nil {
		if err := db.conn.Close(); err != nil {
			return storageErr("close database before restore", err)
		}
	}
	removeSidecars(db.path)

	if err := os.Rename(tmpPath, db.path); err != nil {
		// Put the old database back in service.
		db.reopen()
		return fmt.Errorf("failed to replace database file: %w", err)
	}
	replaced = true

	if err := db.reopen(); err != nil {
		return storageErr("reopen restored database "+db.path, err)
	}
	return nil
}

// openConnFunc opens the connection Restore switches to.
var openConnFunc = openConn

// reopen replaces the connection after the file was swapped, and marks the
// store lost when that fails. Callers hold gate exclusively.
func (db *DB) reopen() error {
	conn, err := openConnFunc(db.path)
	if err != nil {
		db.lost = err
		return err
	}
	db.conn = conn
	db.lost = nil
	return nil
}

// validateStoreFile checks that path is an intact sqlite database carrying
// every table of the schema.
func validateStoreFile(ctx context.Context, path string) error {
	conn, err := sqlx.Open("sqlite", "file:"+path)
	if err != nil {
		return fmt.Errorf("%w: failed to open restore file: %w", domain.ErrInvalidInput, err)
	}
	defer func() {
		conn.Close()
		removeSidecars(path)
	}()

	var check string
	if err := conn.GetContext(ctx, &check, `PRAGMA quick_check`); err != nil {
		return fmt.Errorf("%w: restore file is not a database: %w", domain.ErrInvalidInput, err)
	}
	if check != "ok" {
		return fmt.Errorf("%w: restore file failed integrity check: %s", domain.ErrInvalidInput, check)
	}

	query, args, err := sqlx.In(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN (?)
	`, requiredTables)
	if err != nil {
		return fmt.Errorf("failed to build table check: %w", err)
	}
	var found int
	if err := conn.GetContext(ctx, &found, conn.Rebind(query), args...); err != nil {
		return fmt.Errorf("%w: failed to read restore file schema: %w", domain.ErrInvalidInput, err)
	}
	if found != len(requiredTables) {
		return fmt.Errorf("%w: restore file is missing tables, found %d of %d",
			domain.ErrInvalidInput, found, len(requiredTables))
	}
	return nil
}

func removeSidecars(path string) {
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
}

func removeWithSidecars(path string) {
	os.Remove(path)
	removeSidecars(path)
}
