// Package backup exports the whole store to a byte stream and restores it.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/conorfennell/srs/internal/domain"
)

// Result is the outcome of a backup or restore.
type Result int

const (
	Success Result = iota
	// TransactionInProgress means the store was busy. Retrying later may succeed.
	TransactionInProgress
	Failed
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case TransactionInProgress:
		return "transaction in progress"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Store is a store that can be copied and replaced as a whole.
type Store interface {
	Snapshot(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) error
}

func classify(err error) Result {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, domain.ErrTransactionInProgress):
		return TransactionInProgress
	default:
		return Failed
	}
}

// Create writes a snapshot of store to w. The error explains a
// non-successful Result.
func Create(ctx context.Context, store Store, w io.Writer) (Result, error) {
	err := store.Snapshot(ctx, w)
	return classify(err), err
}

// Restore replaces the contents of store with the snapshot read from r.
// Nothing is replaced unless the result is Success.
func Restore(ctx context.Context, store Store, r io.Reader) (Result, error) {
	err := store.Restore(ctx, r)
	return classify(err), err
}

// ExportFile writes a snapshot of store to path. The file only appears once
// the snapshot is complete.
func ExportFile(ctx context.Context, store Store, path string) (Result, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".srs-export-*")
	if err != nil {
		return Failed, fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	res, err := Create(ctx, store, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		res, err = Failed, fmt.Errorf("failed to write export file: %w", closeErr)
	}
	if res != Success {
		return res, err
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return Failed, fmt.Errorf("failed to move export into place: %w", err)
	}
	slog.Info("Export complete", "path", path)
	return Success, nil
}

// ImportFile restores store from the snapshot at path.
func ImportFile(ctx context.Context, store Store, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Failed, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	res, err := Restore(ctx, store, f)
	if res == Success {
		slog.Info("Import complete", "path", path)
	}
	return res, err
}
