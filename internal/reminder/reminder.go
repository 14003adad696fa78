// Package reminder periodically reports decks that have cards due.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/srs/internal/domain"
	"github.com/go-co-op/gocron"
)

// DueCounter lists decks with their due-card counts.
type DueCounter interface {
	DecksWithCount(ctx context.Context) ([]domain.DeckWithCount, error)
}

// Notifier is told about every deck that has cards due.
type Notifier interface {
	Notify(ctx context.Context, deck domain.DeckWithCount) error
}

// LogNotifier reports due decks through slog.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, deck domain.DeckWithCount) error {
	slog.Info("Cards due for review", "deck_id", deck.ID, "deck", deck.Name, "due", deck.ScheduledCardCount)
	return nil
}

// Reminder runs the due check on a fixed interval.
type Reminder struct {
	decks    DueCounter
	notifier Notifier
	every    time.Duration
	loc      *time.Location
}

// New returns a Reminder that checks every interval. loc is the zone the
// job scheduler runs in.
func New(decks DueCounter, notifier Notifier, every time.Duration, loc *time.Location) *Reminder {
	if loc == nil {
		loc = time.Local
	}
	return &Reminder{decks: decks, notifier: notifier, every: every, loc: loc}
}

// Check notifies about every deck with due cards and returns the total
// number of due cards.
func (r *Reminder) Check(ctx context.Context) (int, error) {
	decks, err := r.decks.DecksWithCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}

	total := 0
	for _, deck := range decks {
		if deck.ScheduledCardCount == 0 {
			continue
		}
		total += deck.ScheduledCardCount
		if err := r.notifier.Notify(ctx, deck); err != nil {
			slog.Warn("Failed to send reminder", "deck_id", deck.ID, "error", err)
		}
	}
	return total, nil
}

// Run checks immediately and then every interval until ctx is done.
func (r *Reminder) Run(ctx context.Context) error {
	s := gocron.NewScheduler(r.loc)
	s.SingletonMode()

	_, err := s.Every(r.every).StartImmediately().Do(func() {
		total, err := r.Check(ctx)
		if err != nil {
			slog.Error("Reminder check failed", "error", err)
			return
		}
		slog.Debug("Reminder check complete", "due", total)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}

	s.StartAsync()
	slog.Info("Reminder started", "every", r.every)
	<-ctx.Done()
	s.Stop()
	slog.Info("Reminder stopped")
	return nil
}
