// Package sourcesync reconciles card sources with the decks they feed.
package sourcesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/domain"
	"github.com/conorfennell/srs/internal/gitsource"
	"github.com/conorfennell/srs/internal/knol"
	"github.com/conorfennell/srs/internal/parser"
)

// CardAdder creates a card together with its initial schedule.
type CardAdder interface {
	AddCard(ctx context.Context, card domain.Card) (domain.Card, error)
}

// FetchFunc brings the checkout of a git source at localPath up to date.
type FetchFunc func(ctx context.Context, url, localPath string) error

// Syncer manages card sources and syncs their notes into decks.
type Syncer struct {
	store    domain.Store
	cards    CardAdder
	clock    clock.Clock
	reposDir string
	fetch    FetchFunc
}

// New returns a Syncer that keeps git checkouts under reposDir.
func New(store domain.Store, cards CardAdder, clk clock.Clock, reposDir string) *Syncer {
	return &Syncer{
		store:    store,
		cards:    cards,
		clock:    clk,
		reposDir: reposDir,
		fetch: func(ctx context.Context, url, localPath string) error {
			return gitsource.Sync(ctx, url, localPath, io.Discard)
		},
	}
}

// WithFetch replaces the git fetcher.
func (s *Syncer) WithFetch(fetch FetchFunc) *Syncer {
	s.fetch = fetch
	return s
}

// Result summarizes the sync of one source.
type Result struct {
	Source  domain.Source
	Parsed  int
	Added   int
	Deleted int
	// Errors holds per-file and per-card failures that did not stop the sync.
	Errors []error
}

// AddSource binds a local directory or git URL to a deck.
func (s *Syncer) AddSource(ctx context.Context, deckID int64, path string) (domain.Source, error) {
	source := domain.Source{DeckID: deckID, Path: strings.TrimSpace(path), Type: domain.SourceLocal}
	if source.Path == "" {
		return domain.Source{}, fmt.Errorf("%w: empty source path", domain.ErrInvalidInput)
	}

	if gitsource.IsRemote(source.Path) {
		source.Type = domain.SourceGit
	} else {
		abs, err := filepath.Abs(source.Path)
		if err != nil {
			return domain.Source{}, fmt.Errorf("failed to resolve %s: %w", source.Path, err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return domain.Source{}, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, abs)
		}
		source.Path = abs
	}

	err := s.store.Update(ctx, func(tx domain.Tx) error {
		if _, err := tx.GetDeck(ctx, deckID); err != nil {
			return err
		}
		if _, found, err := tx.FindSourceByPath(ctx, source.Path); err != nil {
			return err
		} else if found {
			return fmt.Errorf("%w: source %s already exists", domain.ErrInvalidInput, source.Path)
		}
		id, err := tx.InsertSource(ctx, source)
		source.ID = id
		return err
	})
	if err != nil {
		return domain.Source{}, err
	}
	slog.Info("Source added", "id", source.ID, "type", source.Type, "path", source.Path, "deck_id", deckID)
	return source, nil
}

// ListSources returns every source.
func (s *Syncer) ListSources(ctx context.Context) ([]domain.Source, error) {
	var sources []domain.Source
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		sources, err = tx.ListSources(ctx)
		return err
	})
	return sources, err
}

// RemoveSource deletes a source. Cards it created stay in their deck.
func (s *Syncer) RemoveSource(ctx context.Context, id int64) error {
	return s.store.Update(ctx, func(tx domain.Tx) error {
		return tx.DeleteSource(ctx, id)
	})
}

// SyncAll iterates over all sources and reconciles them. A source that fails
// does not stop the others; the returned error joins every failure.
func (s *Syncer) SyncAll(ctx context.Context) ([]Result, error) {
	slog.Info("Starting sync process for all sources...")
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("No sources configured")
		return nil, nil
	}

	var (
		results []Result
		errs    []error
	)
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.Sync(ctx, source)
		if err != nil {
			slog.Error("Error syncing source", "id", source.ID, "path", source.Path, "error", err)
			errs = append(errs, fmt.Errorf("source %d: %w", source.ID, err))
			continue
		}
		results = append(results, res)
	}
	slog.Info("Sync process complete.", "sources", len(sources), "failed", len(errs))
	return results, errors.Join(errs...)
}

// Sync reconciles a single source with its deck: new notes become cards and
// cards whose note disappeared are deleted. Nothing is deleted while any file
// of the source fails to parse.
func (s *Syncer) Sync(ctx context.Context, source domain.Source) (Result, error) {
	slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	dir := source.Path
	if source.Type == domain.SourceGit {
		localPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			return Result{}, err
		}
		if err := s.fetch(ctx, source.Path, localPath); err != nil {
			return Result{}, err
		}
		dir = localPath
	}
	return s.reconcile(ctx, source, dir)
}

func (s *Syncer) reconcile(ctx context.Context, source domain.Source, dir string) (Result, error) {
	res := Result{Source: source}

	notes, parseErrs, err := collectNotes(dir)
	if err != nil {
		return res, fmt.Errorf("error walking directory %s: %w", dir, err)
	}
	res.Errors = append(res.Errors, parseErrs...)
	res.Parsed = len(notes)

	var existing []domain.Card
	if err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		existing, err = tx.ListCardsBySource(ctx, source.ID)
		return err
	}); err != nil {
		return res, fmt.Errorf("error getting cards for source %d: %w", source.ID, err)
	}
	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c.SourceHash] = true
	}

	found := make(map[string]bool, len(notes))
	for _, note := range notes {
		hash := knol.Hash(note)
		if found[hash] {
			continue
		}
		found[hash] = true
		if known[hash] {
			continue
		}

		slog.Debug("New card found, inserting...", "hash", hash)
		sourceID := source.ID
		_, err := s.cards.AddCard(ctx, domain.Card{
			DeckID:     source.DeckID,
			Front:      note.Question,
			Back:       note.Back(),
			SourceID:   &sourceID,
			SourceHash: hash,
		})
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("db insert for %s: %w", hash, err))
			continue
		}
		res.Added++
	}

	// A file that failed to parse still holds notes; their cards are not
	// orphans and must keep their history.
	var orphans []int64
	if len(parseErrs) == 0 {
		for _, c := range existing {
			if !found[c.SourceHash] {
				orphans = append(orphans, c.ID)
			}
		}
	} else {
		slog.Warn("Skipping orphan deletion, source has unparsable files", "id", source.ID, "files", len(parseErrs))
	}

	err = s.store.Update(ctx, func(tx domain.Tx) error {
		for _, id := range orphans {
			slog.Debug("Orphaned card, deleting", "card_id", id)
			if err := tx.DeleteCard(ctx, id); err != nil {
				return err
			}
		}
		return tx.UpdateSourceLastScanned(ctx, source.ID, s.clock.Now())
	})
	if err != nil {
		return res, fmt.Errorf("failed to delete orphaned cards: %w", err)
	}
	res.Deleted = len(orphans)

	slog.Info("reconciliation complete",
		"path", dir,
		"parsed_cards", res.Parsed,
		"added", res.Added,
		"orphaned_deleted", res.Deleted,
		"errors", len(res.Errors),
	)
	return res, nil
}

// collectNotes parses every markdown file under dir. Files that fail to
// parse are reported and skipped.
func collectNotes(dir string) ([]parser.Note, []error, error) {
	var (
		notes []parser.Note
		errs  []error
	)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileNotes, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		notes = append(notes, fileNotes...)
		return nil
	})
	return notes, errs, walkErr
}
