package domain

import "time"

// DefaultIntervalModifier is the interval modifier given to newly created decks.
const DefaultIntervalModifier = 100

// Deck groups cards. IntervalModifier is a percentage applied to every
// graduated interval computed for the deck's cards.
type Deck struct {
	ID               int64
	Name             string
	IntervalModifier int
	CreatedAt        time.Time
}

// DeckWithCount is a deck together with the number of its cards that are due
// in the current day cycle.
type DeckWithCount struct {
	Deck
	ScheduledCardCount int
}

// Card represents a single front/back entry owned by a deck.
// SourceID and SourceHash are set for cards that were synced from a card source.
type Card struct {
	ID         int64
	DeckID     int64
	Front      string
	Back       string
	CreatedAt  time.Time
	SourceID   *int64
	SourceHash string
}

// CardToReview is the projection returned by the due query.
type CardToReview struct {
	ID    int64
	Front string
	Back  string
}

// BrowserCard is a card listed together with its scheduling state.
type BrowserCard struct {
	ID       int64
	DeckID   int64
	DeckName string
	Front    string
	Back     string
	Schedule ScheduleState
}

// AnswerEvent records a single answer given for a card.
type AnswerEvent struct {
	ID        int64
	CardID    int64
	IsCorrect bool
	Timestamp time.Time
}
