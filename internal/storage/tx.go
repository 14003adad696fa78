package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/srs/internal/domain"
	"github.com/jmoiron/sqlx"
)

// Tx implements domain.Tx on top of a sqlx transaction.
type Tx struct {
	tx *sqlx.Tx
}

var _ domain.Tx = (*Tx)(nil)

type deckRow struct {
	ID               int64  `db:"id"`
	Name             string `db:"name"`
	IntervalModifier int    `db:"interval_modifier"`
	CreatedAt        int64  `db:"created_at"`
}

func (r deckRow) toDomain() domain.Deck {
	return domain.Deck{
		ID:               r.ID,
		Name:             r.Name,
		IntervalModifier: r.IntervalModifier,
		CreatedAt:        fromMillis(r.CreatedAt),
	}
}

type cardRow struct {
	ID         int64          `db:"id"`
	DeckID     int64          `db:"deck_id"`
	Front      string         `db:"front"`
	Back       string         `db:"back"`
	CreatedAt  int64          `db:"created_at"`
	SourceID   sql.NullInt64  `db:"source_id"`
	SourceHash sql.NullString `db:"source_hash"`
}

func (r cardRow) toDomain() domain.Card {
	c := domain.Card{
		ID:         r.ID,
		DeckID:     r.DeckID,
		Front:      r.Front,
		Back:       r.Back,
		CreatedAt:  fromMillis(r.CreatedAt),
		SourceHash: r.SourceHash.String,
	}
	if r.SourceID.Valid {
		id := r.SourceID.Int64
		c.SourceID = &id
	}
	return c
}

type scheduleRow struct {
	CardID       int64         `db:"card_id"`
	ScheduledFor sql.NullInt64 `db:"scheduled_for"`
	IntervalDays sql.NullInt64 `db:"interval_days"`
	IsLeech      bool          `db:"is_leech"`
}

func (r scheduleRow) toDomain() domain.ScheduleState {
	s := domain.ScheduleState{CardID: r.CardID, IsLeech: r.IsLeech}
	if r.ScheduledFor.Valid && r.IntervalDays.Valid {
		s.Status = domain.Active{
			ScheduledFor: fromMillis(r.ScheduledFor.Int64),
			IntervalDays: int(r.IntervalDays.Int64),
		}
	} else {
		s.Status = domain.Suspended{}
	}
	return s
}

func statusColumns(status domain.Status) (scheduledFor, intervalDays sql.NullInt64) {
	if a, ok := status.(domain.Active); ok {
		scheduledFor = sql.NullInt64{Int64: toMillis(a.ScheduledFor), Valid: true}
		intervalDays = sql.NullInt64{Int64: int64(a.IntervalDays), Valid: true}
	}
	return scheduledFor, intervalDays
}

type answerRow struct {
	ID        int64 `db:"id"`
	CardID    int64 `db:"card_id"`
	IsCorrect bool  `db:"is_correct"`
	Timestamp int64 `db:"timestamp"`
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// expectRow turns a zero-row write into ErrNotFound.
func expectRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("get rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, what, id)
	}
	return nil
}

// InsertDeck inserts a new deck with the default interval modifier.
func (t *Tx) InsertDeck(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO decks (name, interval_modifier, created_at)
		VALUES (?, ?, ?)
	`, name, domain.DefaultIntervalModifier, toMillis(createdAt))
	if err != nil {
		return 0, storageErr(fmt.Sprintf("insert deck %q", name), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("get last insert ID for deck", err)
	}
	return id, nil
}

// UpdateDeck renames a deck and sets its interval modifier.
func (t *Tx) UpdateDeck(ctx context.Context, id int64, name string, intervalModifier int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE decks
		SET name = ?, interval_modifier = ?
		WHERE id = ?
	`, name, intervalModifier, id)
	if err != nil {
		return storageErr(fmt.Sprintf("update deck %d", id), err)
	}
	return expectRow(res, "deck", id)
}

// DeleteDeck removes a deck. Its cards, schedules and answers cascade.
func (t *Tx) DeleteDeck(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return storageErr(fmt.Sprintf("delete deck %d", id), err)
	}
	return expectRow(res, "deck", id)
}

// GetDeck retrieves a deck by its ID.
func (t *Tx) GetDeck(ctx context.Context, id int64) (domain.Deck, error) {
	var row deckRow
	err := t.tx.GetContext(ctx, &row, `
		SELECT id, name, interval_modifier, created_at
		FROM decks WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deck{}, fmt.Errorf("%w: deck %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Deck{}, storageErr(fmt.Sprintf("find deck %d", id), err)
	}
	return row.toDomain(), nil
}

// ListDecks retrieves all decks ordered by creation.
func (t *Tx) ListDecks(ctx context.Context) ([]domain.Deck, error) {
	var rows []deckRow
	if err := t.tx.SelectContext(ctx, &rows, `
		SELECT id, name, interval_modifier, created_at
		FROM decks ORDER BY id
	`); err != nil {
		return nil, storageErr("list decks", err)
	}
	decks := make([]domain.Deck, 0, len(rows))
	for _, r := range rows {
		decks = append(decks, r.toDomain())
	}
	return decks, nil
}

// DecksWithDueCount retrieves all decks with the number of cards scheduled at or before dueBy.
func (t *Tx) DecksWithDueCount(ctx context.Context, dueBy time.Time) ([]domain.DeckWithCount, error) {
	var rows []struct {
		deckRow
		ScheduledCardCount int `db:"scheduled_card_count"`
	}
	if err := t.tx.SelectContext(ctx, &rows, `
		SELECT d.id, d.name, d.interval_modifier, d.created_at,
		       COUNT(s.card_id) AS scheduled_card_count
		FROM decks d
		LEFT JOIN cards c ON c.deck_id = d.id
		LEFT JOIN schedules s ON s.card_id = c.id AND s.scheduled_for <= ?
		GROUP BY d.id
		ORDER BY d.id
	`, toMillis(dueBy)); err != nil {
		return nil, storageErr("count due cards per deck", err)
	}
	decks := make([]domain.DeckWithCount, 0, len(rows))
	for _, r := range rows {
		decks = append(decks, domain.DeckWithCount{
			Deck:               r.deckRow.toDomain(),
			ScheduledCardCount: r.ScheduledCardCount,
		})
	}
	return decks, nil
}

// InsertCard inserts a new card. The caller is responsible for its schedule row.
func (t *Tx) InsertCard(ctx context.Context, card domain.Card) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO cards (deck_id, front, back, created_at, source_id, source_hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		card.DeckID,
		card.Front,
		card.Back,
		toMillis(card.CreatedAt),
		nullableID(card.SourceID),
		nullableString(card.SourceHash),
	)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("insert card into deck %d", card.DeckID), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("get last insert ID for card", err)
	}
	return id, nil
}

// UpdateCard updates the deck and content of a card.
func (t *Tx) UpdateCard(ctx context.Context, card domain.Card) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE cards
		SET deck_id = ?, front = ?, back = ?
		WHERE id = ?
	`, card.DeckID, card.Front, card.Back, card.ID)
	if err != nil {
		return storageErr(fmt.Sprintf("update card %d", card.ID), err)
	}
	return expectRow(res, "card", card.ID)
}

// DeleteCard removes a card. Its schedule and answers cascade.
func (t *Tx) DeleteCard(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return storageErr(fmt.Sprintf("delete card %d", id), err)
	}
	return expectRow(res, "card", id)
}

// GetCard retrieves a card by its ID.
func (t *Tx) GetCard(ctx context.Context, id int64) (domain.Card, error) {
	var row cardRow
	err := t.tx.GetContext(ctx, &row, `
		SELECT id, deck_id, front, back, created_at, source_id, source_hash
		FROM cards WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Card{}, fmt.Errorf("%w: card %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Card{}, storageErr(fmt.Sprintf("find card %d", id), err)
	}
	return row.toDomain(), nil
}

// ListCards retrieves one page of cards with their deck name and schedule.
func (t *Tx) ListCards(ctx context.Context, limit, offset int) ([]domain.BrowserCard, error) {
	var rows []struct {
		ID       int64  `db:"id"`
		DeckID   int64  `db:"deck_id"`
		DeckName string `db:"deck_name"`
		Front    string `db:"front"`
		Back     string `db:"back"`
		scheduleRow
	}
	if err := t.tx.SelectContext(ctx, &rows, `
		SELECT c.id, c.deck_id, d.name AS deck_name, c.front, c.back,
		       s.card_id, s.scheduled_for, s.interval_days, s.is_leech
		FROM cards c
		JOIN decks d ON d.id = c.deck_id
		JOIN schedules s ON s.card_id = c.id
		ORDER BY c.id
		LIMIT ? OFFSET ?
	`, limit, offset); err != nil {
		return nil, storageErr("list cards", err)
	}
	cards := make([]domain.BrowserCard, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, domain.BrowserCard{
			ID:       r.ID,
			DeckID:   r.DeckID,
			DeckName: r.DeckName,
			Front:    r.Front,
			Back:     r.Back,
			Schedule: r.scheduleRow.toDomain(),
		})
	}
	return cards, nil
}

// CountCards returns the number of cards in the store.
func (t *Tx) CountCards(ctx context.Context) (int, error) {
	var n int
	if err := t.tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM cards`); err != nil {
		return 0, storageErr("count cards", err)
	}
	return n, nil
}

// InsertSchedule inserts the schedule row of a card.
func (t *Tx) InsertSchedule(ctx context.Context, state domain.ScheduleState) error {
	scheduledFor, intervalDays := statusColumns(state.Status)
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO schedules (card_id, scheduled_for, interval_days, is_leech)
		VALUES (?, ?, ?, ?)
	`, state.CardID, scheduledFor, intervalDays, state.IsLeech); err != nil {
		return storageErr(fmt.Sprintf("insert schedule for card %d", state.CardID), err)
	}
	return nil
}

// GetSchedule retrieves the schedule row of a card.
func (t *Tx) GetSchedule(ctx context.Context, cardID int64) (domain.ScheduleState, error) {
	var row scheduleRow
	err := t.tx.GetContext(ctx, &row, `
		SELECT card_id, scheduled_for, interval_days, is_leech
		FROM schedules WHERE card_id = ?
	`, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScheduleState{}, fmt.Errorf("%w: schedule for card %d", domain.ErrNotFound, cardID)
	}
	if err != nil {
		return domain.ScheduleState{}, storageErr(fmt.Sprintf("find schedule for card %d", cardID), err)
	}
	return row.toDomain(), nil
}

// SetStatus overwrites the scheduled time and interval of a card.
func (t *Tx) SetStatus(ctx context.Context, cardID int64, status domain.Status) error {
	scheduledFor, intervalDays := statusColumns(status)
	res, err := t.tx.ExecContext(ctx, `
		UPDATE schedules
		SET scheduled_for = ?, interval_days = ?
		WHERE card_id = ?
	`, scheduledFor, intervalDays, cardID)
	if err != nil {
		return storageErr(fmt.Sprintf("update schedule for card %d", cardID), err)
	}
	return expectRow(res, "schedule for card", cardID)
}

// MarkLeech flags a card as a leech.
func (t *Tx) MarkLeech(ctx context.Context, cardID int64) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE schedules SET is_leech = 1 WHERE card_id = ?`, cardID)
	if err != nil {
		return storageErr(fmt.Sprintf("mark card %d as leech", cardID), err)
	}
	return expectRow(res, "schedule for card", cardID)
}

// InsertAnswer appends an answer to the log.
func (t *Tx) InsertAnswer(ctx context.Context, answer domain.AnswerEvent) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO answers (card_id, is_correct, timestamp)
		VALUES (?, ?, ?)
	`, answer.CardID, answer.IsCorrect, toMillis(answer.Timestamp))
	if err != nil {
		return 0, storageErr(fmt.Sprintf("insert answer for card %d", answer.CardID), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("get last insert ID for answer", err)
	}
	return id, nil
}

// LastAnswer retrieves the most recent answer for a card. The boolean is
// false when the card has never been answered.
func (t *Tx) LastAnswer(ctx context.Context, cardID int64) (domain.AnswerEvent, bool, error) {
	var row answerRow
	err := t.tx.GetContext(ctx, &row, `
		SELECT id, card_id, is_correct, timestamp
		FROM answers
		WHERE card_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`, cardID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AnswerEvent{}, false, nil
	}
	if err != nil {
		return domain.AnswerEvent{}, false, storageErr(fmt.Sprintf("find last answer for card %d", cardID), err)
	}
	return domain.AnswerEvent{
		ID:        row.ID,
		CardID:    row.CardID,
		IsCorrect: row.IsCorrect,
		Timestamp: fromMillis(row.Timestamp),
	}, true, nil
}

// CountWrongAnswers returns the all-time number of wrong answers for a card.
func (t *Tx) CountWrongAnswers(ctx context.Context, cardID int64) (int, error) {
	var n int
	if err := t.tx.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM answers WHERE card_id = ? AND is_correct = 0
	`, cardID); err != nil {
		return 0, storageErr(fmt.Sprintf("count wrong answers for card %d", cardID), err)
	}
	return n, nil
}

// CardsToReview retrieves the cards of a deck scheduled at or before dueBy,
// oldest schedule first.
func (t *Tx) CardsToReview(ctx context.Context, deckID int64, dueBy time.Time) ([]domain.CardToReview, error) {
	var rows []struct {
		ID    int64  `db:"id"`
		Front string `db:"front"`
		Back  string `db:"back"`
	}
	if err := t.tx.SelectContext(ctx, &rows, `
		SELECT c.id, c.front, c.back
		FROM cards c
		JOIN schedules s ON s.card_id = c.id
		WHERE c.deck_id = ?
		  AND s.scheduled_for IS NOT NULL
		  AND s.scheduled_for <= ?
		ORDER BY s.scheduled_for, c.id
	`, deckID, toMillis(dueBy)); err != nil {
		return nil, storageErr(fmt.Sprintf("get cards to review for deck %d", deckID), err)
	}
	cards := make([]domain.CardToReview, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, domain.CardToReview{ID: r.ID, Front: r.Front, Back: r.Back})
	}
	return cards, nil
}

// GlobalStats counts cards by status over the whole store. ForReviewCount
// covers cards scheduled in (reviewSpanStart, reviewSpanEnd].
func (t *Tx) GlobalStats(ctx context.Context, reviewSpanStart, reviewSpanEnd time.Time) (domain.GlobalStats, error) {
	var stats domain.GlobalStats
	if err := t.tx.GetContext(ctx, &stats, `
		SELECT
		    COALESCE(SUM(CASE WHEN interval_days IS NOT NULL AND is_leech = 0 THEN 1 ELSE 0 END), 0) AS active_count,
		    COALESCE(SUM(CASE WHEN scheduled_for IS NULL AND is_leech = 0 THEN 1 ELSE 0 END), 0) AS suspended_count,
		    COALESCE(SUM(CASE WHEN is_leech = 1 THEN 1 ELSE 0 END), 0) AS leech_count,
		    COALESCE(SUM(CASE WHEN scheduled_for > ? AND scheduled_for <= ? THEN 1 ELSE 0 END), 0) AS for_review_count
		FROM schedules
	`, toMillis(reviewSpanStart), toMillis(reviewSpanEnd)); err != nil {
		return domain.GlobalStats{}, storageErr("get global stats", err)
	}
	return stats, nil
}

// DeckStats counts cards by status per deck, and answers given since accuracySince.
func (t *Tx) DeckStats(ctx context.Context, accuracySince time.Time) ([]domain.DeckStats, error) {
	var stats []domain.DeckStats
	if err := t.tx.SelectContext(ctx, &stats, `
		SELECT
		    d.id AS deck_id,
		    d.name AS name,
		    COALESCE(cs.active_count, 0) AS active_count,
		    COALESCE(cs.suspended_count, 0) AS suspended_count,
		    COALESCE(cs.leech_count, 0) AS leech_count,
		    COALESCE(ac.correct_count, 0) AS correct_count,
		    COALESCE(ac.wrong_count, 0) AS wrong_count
		FROM decks d
		LEFT JOIN (
		    SELECT c.deck_id,
		        SUM(CASE WHEN s.interval_days IS NOT NULL AND s.is_leech = 0 THEN 1 ELSE 0 END) AS active_count,
		        SUM(CASE WHEN s.scheduled_for IS NULL AND s.is_leech = 0 THEN 1 ELSE 0 END) AS suspended_count,
		        SUM(CASE WHEN s.is_leech = 1 THEN 1 ELSE 0 END) AS leech_count
		    FROM cards c
		    JOIN schedules s ON s.card_id = c.id
		    GROUP BY c.deck_id
		) cs ON cs.deck_id = d.id
		LEFT JOIN (
		    SELECT c.deck_id,
		        SUM(CASE WHEN a.is_correct = 1 THEN 1 ELSE 0 END) AS correct_count,
		        SUM(CASE WHEN a.is_correct = 0 THEN 1 ELSE 0 END) AS wrong_count
		    FROM answers a
		    JOIN cards c ON c.id = a.card_id
		    WHERE a.timestamp >= ?
		    GROUP BY c.deck_id
		) ac ON ac.deck_id = d.id
		ORDER BY d.id
	`, toMillis(accuracySince)); err != nil {
		return nil, storageErr("get deck stats", err)
	}
	return stats, nil
}
