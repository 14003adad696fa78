package domain

import (
	"context"
	"time"
)

// Store runs read/write sequences against the persistent state.
//
// Update runs fn in a serializable read-write transaction: either every write
// made by fn is committed or none is. View runs fn in a read transaction that
// sees a consistent snapshot and never observes a partially applied Update.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a transaction.
// Lookups of missing rows return an error wrapping ErrNotFound; driver
// failures return an error wrapping ErrStorage.
type Tx interface {
	InsertDeck(ctx context.Context, name string, createdAt time.Time) (int64, error)
	UpdateDeck(ctx context.Context, id int64, name string, intervalModifier int) error
	DeleteDeck(ctx context.Context, id int64) error
	GetDeck(ctx context.Context, id int64) (Deck, error)
	ListDecks(ctx context.Context) ([]Deck, error)
	DecksWithDueCount(ctx context.Context, dueBy time.Time) ([]DeckWithCount, error)

	InsertCard(ctx context.Context, card Card) (int64, error)
	UpdateCard(ctx context.Context, card Card) error
	DeleteCard(ctx context.Context, id int64) error
	GetCard(ctx context.Context, id int64) (Card, error)
	ListCards(ctx context.Context, limit, offset int) ([]BrowserCard, error)
	CountCards(ctx context.Context) (int, error)

	InsertSchedule(ctx context.Context, state ScheduleState) error
	GetSchedule(ctx context.Context, cardID int64) (ScheduleState, error)
	SetStatus(ctx context.Context, cardID int64, status Status) error
	MarkLeech(ctx context.Context, cardID int64) error

	InsertAnswer(ctx context.Context, answer AnswerEvent) (int64, error)
	LastAnswer(ctx context.Context, cardID int64) (AnswerEvent, bool, error)
	CountWrongAnswers(ctx context.Context, cardID int64) (int, error)

	InsertSource(ctx context.Context, source Source) (int64, error)
	FindSourceByPath(ctx context.Context, path string) (Source, bool, error)
	ListSources(ctx context.Context) ([]Source, error)
	DeleteSource(ctx context.Context, id int64) error
	UpdateSourceLastScanned(ctx context.Context, id int64, at time.Time) error
	ListCardsBySource(ctx context.Context, sourceID int64) ([]Card, error)

	CardsToReview(ctx context.Context, deckID int64, dueBy time.Time) ([]CardToReview, error)
	GlobalStats(ctx context.Context, reviewSpanStart, reviewSpanEnd time.Time) (GlobalStats, error)
	DeckStats(ctx context.Context, accuracySince time.Time) ([]DeckStats, error)
}
