// Package stats derives card and answer counts for reporting.
package stats

import (
	"context"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/domain"
)

// AccuracyWindowDays is the trailing window answer counts are taken over.
const AccuracyWindowDays = 30

// Report holds the global counts and the counts of every deck.
type Report struct {
	Global domain.GlobalStats
	Decks  []domain.DeckStats
}

// Aggregator computes Reports. It never writes to the store.
type Aggregator struct {
	store    domain.Store
	clock    clock.Clock
	boundary clock.DayBoundary
}

// NewAggregator returns an Aggregator.
func NewAggregator(store domain.Store, clk clock.Clock, boundary clock.DayBoundary) *Aggregator {
	return &Aggregator{store: store, clock: clk, boundary: boundary}
}

// Stats reads every count from a single snapshot of the store.
//
// The global review forecast counts cards scheduled during the day cycle
// after the current one, and the per-deck answer counts cover the last
// AccuracyWindowDays days.
func (a *Aggregator) Stats(ctx context.Context) (Report, error) {
	now := a.clock.Now()
	spanStart := a.boundary.StartOfNextDay(now)
	spanEnd := a.boundary.StartOfNextDay(spanStart)
	since := now.AddDate(0, 0, -AccuracyWindowDays)

	var report Report
	err := a.store.View(ctx, func(tx domain.Tx) error {
		var err error
		if report.Global, err = tx.GlobalStats(ctx, spanStart, spanEnd); err != nil {
			return err
		}
		report.Decks, err = tx.DeckStats(ctx, since)
		return err
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

// Accuracy returns the share of correct answers as an integer percentage.
// A deck without answers has an accuracy of 0.
func Accuracy(s domain.DeckStats) int {
	total := s.AnswerCount()
	if total == 0 {
		return 0
	}
	return s.CorrectCount * 100 / total
}
