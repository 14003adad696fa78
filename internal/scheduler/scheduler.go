package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/domain"
	"github.com/conorfennell/srs/internal/random"
)

const day = 24 * time.Hour

// Scheduler applies answers to cards. Each answer is one store transaction:
// the answer is logged and the schedule updated together or not at all.
type Scheduler struct {
	store  domain.Store
	clock  clock.Clock
	rand   random.Source
	params Params
}

// New returns a Scheduler using the given collaborators.
func New(store domain.Store, clk clock.Clock, rnd random.Source, params Params) *Scheduler {
	return &Scheduler{store: store, clock: clk, rand: rnd, params: params}
}

// AnswerCorrect records a correct answer for the card and moves it to its
// next interval, suspending it once the interval reaches the suspend
// threshold. The card must exist and must not be suspended.
func (s *Scheduler) AnswerCorrect(ctx context.Context, cardID int64) (domain.ScheduleState, error) {
	now := s.clock.Now()
	var result domain.ScheduleState

	err := s.store.Update(ctx, func(tx domain.Tx) error {
		state, active, err := activeSchedule(ctx, tx, cardID)
		if err != nil {
			return err
		}
		card, err := tx.GetCard(ctx, cardID)
		if err != nil {
			return err
		}
		deck, err := tx.GetDeck(ctx, card.DeckID)
		if err != nil {
			return err
		}

		// A card without history counts as previously correct.
		prior, found, err := tx.LastAnswer(ctx, cardID)
		if err != nil {
			return err
		}
		priorCorrect := !found || prior.IsCorrect

		if _, err := tx.InsertAnswer(ctx, domain.AnswerEvent{CardID: cardID, IsCorrect: true, Timestamp: now}); err != nil {
			return err
		}

		step := s.params.NextInterval(active.IntervalDays, deck.IntervalModifier, priorCorrect, s.rand)
		if step.Suspend {
			state.Status = domain.Suspended{}
			slog.Info("Card suspended", "card_id", cardID, "interval_days", active.IntervalDays)
		} else {
			state.Status = domain.Active{
				ScheduledFor: now.Add(time.Duration(step.IntervalDays) * day),
				IntervalDays: step.IntervalDays,
			}
		}
		if err := tx.SetStatus(ctx, cardID, state.Status); err != nil {
			return err
		}
		result = state
		return nil
	})
	if err != nil {
		return domain.ScheduleState{}, err
	}
	return result, nil
}

// AnswerWrong records a wrong answer for the card and makes it due again
// immediately, keeping its interval. The card is flagged as a leech once its
// all-time wrong answers reach the leech threshold. The card must exist and
// must not be suspended.
func (s *Scheduler) AnswerWrong(ctx context.Context, cardID int64) (domain.ScheduleState, error) {
	now := s.clock.Now()
	var result domain.ScheduleState

	err := s.store.Update(ctx, func(tx domain.Tx) error {
		state, active, err := activeSchedule(ctx, tx, cardID)
		if err != nil {
			return err
		}

		if _, err := tx.InsertAnswer(ctx, domain.AnswerEvent{CardID: cardID, IsCorrect: false, Timestamp: now}); err != nil {
			return err
		}

		state.Status = domain.Active{ScheduledFor: now, IntervalDays: active.IntervalDays}
		if err := tx.SetStatus(ctx, cardID, state.Status); err != nil {
			return err
		}

		wrong, err := tx.CountWrongAnswers(ctx, cardID)
		if err != nil {
			return err
		}
		if wrong >= s.params.LeechThreshold && !state.IsLeech {
			if err := tx.MarkLeech(ctx, cardID); err != nil {
				return err
			}
			state.IsLeech = true
			slog.Info("Card marked as leech", "card_id", cardID, "wrong_answers", wrong)
		}
		result = state
		return nil
	})
	if err != nil {
		return domain.ScheduleState{}, err
	}
	return result, nil
}

// activeSchedule loads the schedule of a card that is about to be answered.
func activeSchedule(ctx context.Context, tx domain.Tx, cardID int64) (domain.ScheduleState, domain.Active, error) {
	state, err := tx.GetSchedule(ctx, cardID)
	if err != nil {
		return domain.ScheduleState{}, domain.Active{}, err
	}
	active, ok := state.Active()
	if !ok {
		return domain.ScheduleState{}, domain.Active{}, fmt.Errorf("%w: card %d cannot be answered", domain.ErrSuspended, cardID)
	}
	return state, active, nil
}
