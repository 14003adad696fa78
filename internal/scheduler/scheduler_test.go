package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/domain"
	"github.com/conorfennell/srs/internal/random"
	"github.com/conorfennell/srs/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fixture struct {
	db    *storage.DB
	clock *clock.Adjustable
	sched *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "srs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := clock.NewAdjustable(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	return &fixture{
		db:    db,
		clock: clk,
		sched: New(db, clk, random.Fixed(0), DefaultParams()),
	}
}

func (f *fixture) addCard(t *testing.T, modifier int) int64 {
	t.Helper()
	ctx := context.Background()
	var cardID int64
	require.NoError(t, f.db.Update(ctx, func(tx domain.Tx) error {
		deckID, err := tx.InsertDeck(ctx, "Deck", f.clock.Now())
		if err != nil {
			return err
		}
		if err := tx.UpdateDeck(ctx, deckID, "Deck", modifier); err != nil {
			return err
		}
		cardID, err = tx.InsertCard(ctx, domain.Card{DeckID: deckID, Front: "q", Back: "a", CreatedAt: f.clock.Now()})
		if err != nil {
			return err
		}
		return tx.InsertSchedule(ctx, domain.NewSchedule(cardID, f.clock.Now()))
	}))
	return cardID
}

func (f *fixture) schedule(t *testing.T, cardID int64) domain.ScheduleState {
	t.Helper()
	var state domain.ScheduleState
	require.NoError(t, f.db.View(context.Background(), func(tx domain.Tx) error {
		var err error
		state, err = tx.GetSchedule(context.Background(), cardID)
		return err
	}))
	return state
}

// intervals answers correctly until the card is suspended and returns every
// interval it went through.
func (f *fixture) intervals(t *testing.T, cardID int64) []int {
	t.Helper()
	var got []int
	for i := 0; i < 20; i++ {
		state, err := f.sched.AnswerCorrect(context.Background(), cardID)
		require.NoError(t, err)
		active, ok := state.Active()
		if !ok {
			return got
		}
		got = append(got, active.IntervalDays)
		f.clock.Advance(time.Duration(active.IntervalDays) * day)
	}
	t.Fatal("card was never suspended")
	return nil
}

func TestCorrectAnswersGrowUntilSuspended(t *testing.T) {
	testCases := []struct {
		name     string
		modifier int
		expected []int
	}{
		{"Default modifier", 100, []int{1, 4, 10, 25, 62, 155}},
		{"Double modifier", 200, []int{1, 4, 20, 100}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			cardID := f.addCard(t, tc.modifier)
			assert.Equal(t, tc.expected, f.intervals(t, cardID))

			state := f.schedule(t, cardID)
			assert.True(t, state.IsSuspended())
		})
	}
}

func TestAnswerCorrectSchedulesFromNow(t *testing.T) {
	f := newFixture(t)
	cardID := f.addCard(t, 100)
	now := f.clock.Now()

	state, err := f.sched.AnswerCorrect(context.Background(), cardID)
	require.NoError(t, err)

	active, ok := f.schedule(t, cardID).Active()
	require.True(t, ok)
	assert.Equal(t, 1, active.IntervalDays)
	assert.True(t, active.ScheduledFor.Equal(now.Add(day)))
	assert.Equal(t, state.Status.(domain.Active).IntervalDays, active.IntervalDays)
}

func TestWrongAnswerThenPenalty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cardID := f.addCard(t, 100)

	// 1, 4, 10
	for i := 0; i < 3; i++ {
		_, err := f.sched.AnswerCorrect(ctx, cardID)
		require.NoError(t, err)
	}
	f.clock.Advance(10 * day)
	now := f.clock.Now()

	_, err := f.sched.AnswerWrong(ctx, cardID)
	require.NoError(t, err)
	active, ok := f.schedule(t, cardID).Active()
	require.True(t, ok)
	assert.True(t, active.ScheduledFor.Equal(now), "wrong answer makes the card due immediately")
	assert.Equal(t, 10, active.IntervalDays, "wrong answer keeps the interval")

	state, err := f.sched.AnswerCorrect(ctx, cardID)
	require.NoError(t, err)
	active, ok = state.Active()
	require.True(t, ok)
	assert.Equal(t, 7, active.IntervalDays)

	// The next correct answer follows a correct one again.
	state, err = f.sched.AnswerCorrect(ctx, cardID)
	require.NoError(t, err)
	active, ok = state.Active()
	require.True(t, ok)
	assert.Equal(t, 17, active.IntervalDays)
}

func TestWrongAnswerOnNewCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cardID := f.addCard(t, 100)

	_, err := f.sched.AnswerWrong(ctx, cardID)
	require.NoError(t, err)
	state, err := f.sched.AnswerCorrect(ctx, cardID)
	require.NoError(t, err)

	active, ok := state.Active()
	require.True(t, ok)
	assert.Equal(t, 1, active.IntervalDays, "seed intervals ignore the previous answer")
}

func TestLeechAfterFourWrongAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cardID := f.addCard(t, 100)

	for i := 1; i <= 3; i++ {
		state, err := f.sched.AnswerWrong(ctx, cardID)
		require.NoError(t, err)
		assert.False(t, state.IsLeech, "after %d wrong answers", i)
		_, err = f.sched.AnswerCorrect(ctx, cardID)
		require.NoError(t, err)
	}

	state, err := f.sched.AnswerWrong(ctx, cardID)
	require.NoError(t, err)
	assert.True(t, state.IsLeech)
	assert.True(t, f.schedule(t, cardID).IsLeech)

	// The flag is informational: the card is still answerable and stays a leech.
	state, err = f.sched.AnswerCorrect(ctx, cardID)
	require.NoError(t, err)
	assert.True(t, state.IsLeech)
	_, ok := state.Active()
	assert.True(t, ok)
}

func TestAnswerPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suspended := f.addCard(t, 100)
	require.NoError(t, f.db.Update(ctx, func(tx domain.Tx) error {
		return tx.SetStatus(ctx, suspended, domain.Suspended{})
	}))

	testCases := []struct {
		name     string
		cardID   int64
		answer   func(context.Context, int64) (domain.ScheduleState, error)
		expected error
	}{
		{"Correct on suspended card", suspended, f.sched.AnswerCorrect, domain.ErrSuspended},
		{"Wrong on suspended card", suspended, f.sched.AnswerWrong, domain.ErrSuspended},
		{"Correct on missing card", 999, f.sched.AnswerCorrect, domain.ErrNotFound},
		{"Wrong on missing card", 999, f.sched.AnswerWrong, domain.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.answer(ctx, tc.cardID)
			require.ErrorIs(t, err, tc.expected)
		})
	}

	// Rejected answers leave no trace in the log.
	require.NoError(t, f.db.View(ctx, func(tx domain.Tx) error {
		_, found, err := tx.LastAnswer(ctx, suspended)
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	}))
}

func TestConcurrentAnswersAreNotLost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cardID := f.addCard(t, 100)
	const answers = 32

	done := make(chan struct{})
	readers, rctx := errgroup.WithContext(ctx)
	for i := 0; i < 4; i++ {
		readers.Go(func() error {
			for {
				select {
				case <-done:
					return nil
				default:
				}
				err := f.db.View(rctx, func(tx domain.Tx) error {
					state, err := tx.GetSchedule(rctx, cardID)
					if err != nil {
						return err
					}
					wrong, err := tx.CountWrongAnswers(rctx, cardID)
					if err != nil {
						return err
					}
					// The leech flag is written in the same transaction as
					// the fourth wrong answer.
					if (wrong >= DefaultParams().LeechThreshold) != state.IsLeech {
						t.Errorf("saw %d wrong answers with leech=%v", wrong, state.IsLeech)
					}
					return nil
				})
				if err != nil {
					return err
				}
			}
		})
	}

	var writers errgroup.Group
	for i := 0; i < answers; i++ {
		writers.Go(func() error {
			_, err := f.sched.AnswerWrong(ctx, cardID)
			return err
		})
	}
	require.NoError(t, writers.Wait())
	close(done)
	require.NoError(t, readers.Wait())

	require.NoError(t, f.db.View(ctx, func(tx domain.Tx) error {
		wrong, err := tx.CountWrongAnswers(ctx, cardID)
		require.NoError(t, err)
		assert.Equal(t, answers, wrong)
		return nil
	}))
	state := f.schedule(t, cardID)
	assert.True(t, state.IsLeech)
	active, ok := state.Active()
	require.True(t, ok)
	assert.Zero(t, active.IntervalDays)
}
