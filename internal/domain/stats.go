package domain

// GlobalStats are counts over every card in the store.
type GlobalStats struct {
	ActiveCount    int `db:"active_count"`
	SuspendedCount int `db:"suspended_count"`
	LeechCount     int `db:"leech_count"`
	ForReviewCount int `db:"for_review_count"`
}

// DeckStats are the per-deck counts. CorrectCount and WrongCount only cover
// the trailing accuracy window.
type DeckStats struct {
	DeckID         int64  `db:"deck_id"`
	Name           string `db:"name"`
	ActiveCount    int    `db:"active_count"`
	SuspendedCount int    `db:"suspended_count"`
	LeechCount     int    `db:"leech_count"`
	CorrectCount   int    `db:"correct_count"`
	WrongCount     int    `db:"wrong_count"`
}

// TotalCount is the number of cards in the deck.
func (s DeckStats) TotalCount() int {
	return s.ActiveCount + s.SuspendedCount + s.LeechCount
}

// AnswerCount is the number of answers in the accuracy window.
func (s DeckStats) AnswerCount() int {
	return s.CorrectCount + s.WrongCount
}
