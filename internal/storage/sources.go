package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/srs/internal/domain"
)

type sourceRow struct {
	ID          int64         `db:"id"`
	DeckID      int64         `db:"deck_id"`
	Path        string        `db:"path"`
	Type        string        `db:"type"`
	LastScanned sql.NullInt64 `db:"last_scanned"`
}

func (r sourceRow) toDomain() domain.Source {
	s := domain.Source{
		ID:     r.ID,
		DeckID: r.DeckID,
		Path:   r.Path,
		Type:   domain.SourceType(r.Type),
	}
	if r.LastScanned.Valid {
		t := fromMillis(r.LastScanned.Int64)
		s.LastScanned = &t
	}
	return s
}

// InsertSource inserts a new source path into the database and returns its ID.
func (t *Tx) InsertSource(ctx context.Context, source domain.Source) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO sources (deck_id, path, type)
		VALUES (?, ?, ?)
	`, source.DeckID, source.Path, string(source.Type))
	if err != nil {
		return 0, storageErr(fmt.Sprintf("insert source %s", source.Path), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr(fmt.Sprintf("get last insert ID for source %s", source.Path), err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (t *Tx) FindSourceByPath(ctx context.Context, path string) (domain.Source, bool, error) {
	var row sourceRow
	err := t.tx.GetContext(ctx, &row, `
		SELECT id, deck_id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Source{}, false, nil
	}
	if err != nil {
		return domain.Source{}, false, storageErr(fmt.Sprintf("find source by path %s", path), err)
	}
	return row.toDomain(), true, nil
}

// ListSources retrieves all stored sources from the database.
func (t *Tx) ListSources(ctx context.Context) ([]domain.Source, error) {
	var rows []sourceRow
	if err := t.tx.SelectContext(ctx, &rows, `
		SELECT id, deck_id, path, type, last_scanned
		FROM sources ORDER BY id
	`); err != nil {
		return nil, storageErr("get all sources", err)
	}
	sources := make([]domain.Source, 0, len(rows))
	for _, r := range rows {
		sources = append(sources, r.toDomain())
	}
	return sources, nil
}

// DeleteSource removes a source. Cards synced from it are kept and detached.
func (t *Tx) DeleteSource(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return storageErr(fmt.Sprintf("delete source %d", id), err)
	}
	return expectRow(res, "source", id)
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (t *Tx) UpdateSourceLastScanned(ctx context.Context, id int64, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, toMillis(at), id)
	if err != nil {
		return storageErr(fmt.Sprintf("update last scanned for source ID %d", id), err)
	}
	return expectRow(res, "source", id)
}

// ListCardsBySource retrieves all cards associated with a specific source ID.
func (t *Tx) ListCardsBySource(ctx context.Context, sourceID int64) ([]domain.Card, error) {
	var rows []cardRow
	if err := t.tx.SelectContext(ctx, &rows, `
		SELECT id, deck_id, front, back, created_at, source_id, source_hash
		FROM cards WHERE source_id = ?
		ORDER BY id
	`, sourceID); err != nil {
		return nil, storageErr(fmt.Sprintf("get cards for source ID %d", sourceID), err)
	}
	cards := make([]domain.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, r.toDomain())
	}
	return cards, nil
}
