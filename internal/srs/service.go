// Package srs manages decks and cards and answers the due query.
package srs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Service is the deck and card management API over a store.
type Service struct {
	store    domain.Store
	clock    clock.Clock
	boundary clock.DayBoundary
	validate *validator.Validate
}

// NewService returns a Service. boundary decides which cards count as due.
func NewService(store domain.Store, clk clock.Clock, boundary clock.DayBoundary) *Service {
	return &Service{
		store:    store,
		clock:    clk,
		boundary: boundary,
		validate: validator.New(),
	}
}

type deckInput struct {
	Name             string `validate:"required,max=200"`
	IntervalModifier int    `validate:"min=1,max=1000"`
}

type cardInput struct {
	DeckID int64  `validate:"gt=0"`
	Front  string `validate:"required"`
	Back   string
}

func (s *Service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// CreateDeck creates an empty deck with the default interval modifier.
func (s *Service) CreateDeck(ctx context.Context, name string) (domain.Deck, error) {
	name = strings.TrimSpace(name)
	if err := s.check(deckInput{Name: name, IntervalModifier: domain.DefaultIntervalModifier}); err != nil {
		return domain.Deck{}, err
	}

	var deck domain.Deck
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		id, err := tx.InsertDeck(ctx, name, s.clock.Now())
		if err != nil {
			return err
		}
		deck, err = tx.GetDeck(ctx, id)
		return err
	})
	return deck, err
}

// EditDeck renames a deck and sets its interval modifier in percent.
func (s *Service) EditDeck(ctx context.Context, id int64, name string, intervalModifier int) error {
	name = strings.TrimSpace(name)
	if err := s.check(deckInput{Name: name, IntervalModifier: intervalModifier}); err != nil {
		return err
	}
	return s.store.Update(ctx, func(tx domain.Tx) error {
		return tx.UpdateDeck(ctx, id, name, intervalModifier)
	})
}

// DeleteDeck deletes a deck together with its cards and their history.
func (s *Service) DeleteDeck(ctx context.Context, id int64) error {
	return s.store.Update(ctx, func(tx domain.Tx) error {
		return tx.DeleteDeck(ctx, id)
	})
}

// GetDeck returns a deck by ID.
func (s *Service) GetDeck(ctx context.Context, id int64) (domain.Deck, error) {
	var deck domain.Deck
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		deck, err = tx.GetDeck(ctx, id)
		return err
	})
	return deck, err
}

// ListDecks returns every deck.
func (s *Service) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	var decks []domain.Deck
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		decks, err = tx.ListDecks(ctx)
		return err
	})
	return decks, err
}

// DecksWithCount returns every deck with the number of cards due in the
// current day cycle.
func (s *Service) DecksWithCount(ctx context.Context) ([]domain.DeckWithCount, error) {
	dueBy := s.boundary.StartOfNextDay(s.clock.Now())
	var decks []domain.DeckWithCount
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		decks, err = tx.DecksWithDueCount(ctx, dueBy)
		return err
	})
	return decks, err
}

// CreateCard adds a card to a deck. The card starts never-reviewed and is
// due immediately.
func (s *Service) CreateCard(ctx context.Context, deckID int64, front, back string) (domain.Card, error) {
	return s.AddCard(ctx, domain.Card{DeckID: deckID, Front: front, Back: back})
}

// AddCard inserts card and its initial schedule in one transaction.
// ID and CreatedAt are assigned by AddCard.
func (s *Service) AddCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	card.Front = strings.TrimSpace(card.Front)
	card.Back = strings.TrimSpace(card.Back)
	if err := s.check(cardInput{DeckID: card.DeckID, Front: card.Front, Back: card.Back}); err != nil {
		return domain.Card{}, err
	}
	card.CreatedAt = s.clock.Now()

	err := s.store.Update(ctx, func(tx domain.Tx) error {
		if _, err := tx.GetDeck(ctx, card.DeckID); err != nil {
			return err
		}
		id, err := tx.InsertCard(ctx, card)
		if err != nil {
			return err
		}
		card.ID = id
		return tx.InsertSchedule(ctx, domain.NewSchedule(id, card.CreatedAt))
	})
	if err != nil {
		return domain.Card{}, err
	}
	return card, nil
}

// EditCard changes the content of a card and may move it to another deck.
// Its schedule and history are kept.
func (s *Service) EditCard(ctx context.Context, id, deckID int64, front, back string) error {
	card := domain.Card{ID: id, DeckID: deckID, Front: strings.TrimSpace(front), Back: strings.TrimSpace(back)}
	if err := s.check(cardInput{DeckID: card.DeckID, Front: card.Front, Back: card.Back}); err != nil {
		return err
	}
	return s.store.Update(ctx, func(tx domain.Tx) error {
		if _, err := tx.GetDeck(ctx, deckID); err != nil {
			return err
		}
		return tx.UpdateCard(ctx, card)
	})
}

// DeleteCard deletes a card together with its schedule and answers.
func (s *Service) DeleteCard(ctx context.Context, id int64) error {
	return s.store.Update(ctx, func(tx domain.Tx) error {
		return tx.DeleteCard(ctx, id)
	})
}

// GetCardAndDeck returns a card and the deck it belongs to.
func (s *Service) GetCardAndDeck(ctx context.Context, id int64) (domain.Card, domain.Deck, error) {
	var (
		card domain.Card
		deck domain.Deck
	)
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		if card, err = tx.GetCard(ctx, id); err != nil {
			return err
		}
		deck, err = tx.GetDeck(ctx, card.DeckID)
		return err
	})
	return card, deck, err
}

// GetSchedule returns the scheduling state of a card.
func (s *Service) GetSchedule(ctx context.Context, cardID int64) (domain.ScheduleState, error) {
	var state domain.ScheduleState
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		state, err = tx.GetSchedule(ctx, cardID)
		return err
	})
	return state, err
}

// BrowseCards returns one page of cards across all decks, in creation order.
func (s *Service) BrowseCards(ctx context.Context, limit, offset int) ([]domain.BrowserCard, error) {
	if limit <= 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit %d offset %d", domain.ErrInvalidInput, limit, offset)
	}
	var cards []domain.BrowserCard
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		cards, err = tx.ListCards(ctx, limit, offset)
		return err
	})
	return cards, err
}

// CountCards returns the total number of cards.
func (s *Service) CountCards(ctx context.Context) (int, error) {
	var n int
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		n, err = tx.CountCards(ctx)
		return err
	})
	return n, err
}

// CardsToReview returns the cards of a deck that are due in the day cycle
// containing asOf: every active card scheduled at or before the start of the
// next day. Suspended cards are never due.
func (s *Service) CardsToReview(ctx context.Context, deckID int64, asOf time.Time) ([]domain.CardToReview, error) {
	dueBy := s.boundary.StartOfNextDay(asOf)
	var cards []domain.CardToReview
	err := s.store.View(ctx, func(tx domain.Tx) error {
		if _, err := tx.GetDeck(ctx, deckID); err != nil {
			return err
		}
		var err error
		cards, err = tx.CardsToReview(ctx, deckID, dueBy)
		return err
	})
	return cards, err
}

// DueNow is CardsToReview as of the current time.
func (s *Service) DueNow(ctx context.Context, deckID int64) ([]domain.CardToReview, error) {
	return s.CardsToReview(ctx, deckID, s.clock.Now())
}
