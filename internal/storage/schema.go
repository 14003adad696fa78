package storage

const schema = `
-- The 'decks' table groups cards and carries the interval modifier (percent).
CREATE TABLE IF NOT EXISTS decks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    interval_modifier INTEGER NOT NULL DEFAULT 100,
    created_at INTEGER NOT NULL
);

-- The 'sources' table tracks where synced cards come from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    deck_id INTEGER NOT NULL,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned INTEGER,

    FOREIGN KEY(deck_id) REFERENCES decks(id) ON DELETE CASCADE
);

-- The 'cards' table stores the content of each flashcard.
CREATE TABLE IF NOT EXISTS cards (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    deck_id INTEGER NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    source_id INTEGER,
    source_hash TEXT,

    FOREIGN KEY(deck_id) REFERENCES decks(id) ON DELETE CASCADE,
    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id);
CREATE INDEX IF NOT EXISTS idx_cards_source ON cards(source_id, source_hash);

-- The 'schedules' table holds one row per card. Both columns are NULL when the card is suspended.
CREATE TABLE IF NOT EXISTS schedules (
    card_id INTEGER PRIMARY KEY,
    scheduled_for INTEGER,
    interval_days INTEGER,
    is_leech INTEGER NOT NULL DEFAULT 0,

    CHECK ((scheduled_for IS NULL) = (interval_days IS NULL)),
    FOREIGN KEY(card_id) REFERENCES cards(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_schedules_scheduled_for ON schedules(scheduled_for);

-- The 'answers' table is the append-only answer log.
CREATE TABLE IF NOT EXISTS answers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL,
    is_correct INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_answers_card ON answers(card_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_answers_timestamp ON answers(timestamp);
`

// requiredTables must all exist in a file before it is accepted by Restore.
var requiredTables = []string{"decks", "sources", "cards", "schedules", "answers"}
