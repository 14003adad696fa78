package domain

import "time"

// SourceType says how the cards of a source are fetched.
type SourceType string

const (
	SourceLocal SourceType = "local"
	SourceGit   SourceType = "git"
)

// Source is a directory or git repository whose markdown notes are synced
// as cards into a deck.
type Source struct {
	ID          int64
	DeckID      int64
	Path        string
	Type        SourceType
	LastScanned *time.Time
}
