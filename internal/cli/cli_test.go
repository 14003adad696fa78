package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/domain"
	"github.com/conorfennell/srs/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	dbPath string
	clock  *clock.Adjustable
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		dbPath: filepath.Join(t.TempDir(), "srs.db"),
		clock:  clock.NewAdjustable(time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)),
	}
}

// run executes one command line against the harness database and returns
// what it printed to stdout.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--db", h.dbPath, "--timezone", "UTC", "--log-level", "error"}, args...)
	err := Run(context.Background(), full, strings.NewReader(stdin), &stdout, &stderr,
		WithClock(h.clock), WithRandom(random.Fixed(0)))
	return stdout.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, "", args...)
	require.NoError(t, err, "srs %s", strings.Join(args, " "))
	return out
}

func TestDeckAndCardLifecycle(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun(t, "deck", "list"), "No decks yet")
	assert.Equal(t, "Created deck 1: Spanish\n", h.mustRun(t, "deck", "create", "Spanish"))
	assert.Equal(t, "Added card 1 to deck 1\n", h.mustRun(t, "card", "add", "1", "hola", "hello"))

	list := h.mustRun(t, "deck", "list")
	assert.Contains(t, list, "Spanish")
	assert.Contains(t, list, "100%")

	assert.Contains(t, h.mustRun(t, "due", "1"), "hola")
	assert.Equal(t, "Next review in 1 day.\n", h.mustRun(t, "answer", "1", "correct"))
	assert.Contains(t, h.mustRun(t, "due", "1"), "No cards due")

	show := h.mustRun(t, "card", "show", "1")
	assert.Contains(t, show, `Card 1 in deck "Spanish"`)
	assert.Contains(t, show, "every 1d, due 2024-04-02 12:00:00")

	h.mustRun(t, "card", "edit", "1", "--back", "hi")
	assert.Contains(t, h.mustRun(t, "card", "show", "1"), "Back:   hi")

	h.mustRun(t, "deck", "edit", "1", "--modifier", "150")
	assert.Contains(t, h.mustRun(t, "deck", "list"), "150%")

	browse := h.mustRun(t, "card", "list")
	assert.Contains(t, browse, "Showing 1 of 1 cards")

	h.mustRun(t, "card", "delete", "1")
	assert.Contains(t, h.mustRun(t, "card", "list"), "Showing 0 of 0 cards")

	h.mustRun(t, "deck", "delete", "1")
	_, err := h.run(t, "", "deck", "delete", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWrongAnswerKeepsCardDue(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	h.mustRun(t, "card", "add", "1", "hola", "hello")

	assert.Equal(t, "Card will be shown again today.\n", h.mustRun(t, "answer", "1", "wrong"))
	assert.Contains(t, h.mustRun(t, "due", "1"), "hola")
}

func TestAnswerSuspendedCard(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	h.mustRun(t, "card", "add", "1", "hola", "hello")

	// 1, 4, 10, 25, 62, 155, then suspended.
	for i := 0; i < 6; i++ {
		h.mustRun(t, "answer", "1", "correct")
	}
	assert.Equal(t, "Card suspended. It will not be shown again.\n", h.mustRun(t, "answer", "1", "correct"))

	_, err := h.run(t, "", "answer", "1", "correct")
	assert.ErrorIs(t, err, domain.ErrSuspended)
}

func TestInvalidArguments(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	h.mustRun(t, "card", "add", "1", "hola", "hello")

	testCases := []struct {
		name     string
		args     []string
		expected error
	}{
		{"Non-numeric deck", []string{"deck", "delete", "abc"}, domain.ErrInvalidInput},
		{"Zero card", []string{"card", "show", "0"}, domain.ErrInvalidInput},
		{"Unknown answer", []string{"answer", "1", "maybe"}, domain.ErrInvalidInput},
		{"Empty deck name", []string{"deck", "create", " "}, domain.ErrInvalidInput},
		{"Missing card", []string{"answer", "42", "wrong"}, domain.ErrNotFound},
		{"Missing deck", []string{"due", "42"}, domain.ErrNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.run(t, "", tc.args...)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestReviewSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	h.mustRun(t, "card", "add", "1", "hola", "hello")
	h.mustRun(t, "card", "add", "1", "adios", "goodbye")

	// Wrong on the first card brings it back after the second.
	input := "\nn\n" + "\ny\n" + "\nmaybe\ny\n"
	out, err := h.run(t, input, "review", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "[1/2] hola")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "Card will be shown again today.")
	assert.Contains(t, out, "[2/2] adios")
	assert.Contains(t, out, "[1/1] hola")
	assert.Contains(t, out, "Please answer y, n or q.")
	assert.Contains(t, out, "Review session complete. 3 cards answered.")
	assert.Contains(t, h.mustRun(t, "due", "1"), "No cards due")
}

func TestReviewStopsOnQuitAndEOF(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	h.mustRun(t, "card", "add", "1", "hola", "hello")

	out, err := h.run(t, "\nq\n", "review", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "0 cards answered")

	out, err = h.run(t, "", "review", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "0 cards answered")
	assert.Contains(t, h.mustRun(t, "due", "1"), "hola")

	out, err = h.run(t, "", "review", "1", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Start a review session")
}

func TestStatsAndReport(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	h.mustRun(t, "card", "add", "1", "hola", "hello")
	h.mustRun(t, "card", "add", "1", "adios", "goodbye")
	h.mustRun(t, "answer", "1", "correct")
	h.mustRun(t, "answer", "2", "wrong")

	out := h.mustRun(t, "stats")
	assert.Contains(t, out, "Active: 2  Suspended: 0  Leeches: 0  Due tomorrow: 1")
	assert.Contains(t, out, "50%")

	path := filepath.Join(t.TempDir(), "stats.xlsx")
	assert.Contains(t, h.mustRun(t, "report", "--out", path), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	backupPath := filepath.Join(t.TempDir(), "backup.db")
	h.mustRun(t, "export", backupPath)

	h.mustRun(t, "deck", "create", "German")
	assert.Contains(t, h.mustRun(t, "deck", "list"), "German")

	h.mustRun(t, "import", backupPath)
	list := h.mustRun(t, "deck", "list")
	assert.Contains(t, list, "Spanish")
	assert.NotContains(t, list, "German")

	garbage := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(garbage, []byte("not a database"), 0o644))
	_, err := h.run(t, "", "import", garbage)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, h.mustRun(t, "deck", "list"), "Spanish")
}

func TestSourceSync(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Notes")
	assert.Contains(t, h.mustRun(t, "sync"), "No sources configured.")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("Q: 2+2?\nA: 4\n---\nQ: 3+3?\nA: 6\n"), 0o644))

	assert.Contains(t, h.mustRun(t, "source", "add", "1", dir), "Added local source 1")
	assert.Contains(t, h.mustRun(t, "sync"), "Source 1: 2 notes, 2 added, 0 deleted")

	list := h.mustRun(t, "source", "list")
	assert.Contains(t, list, dir)
	assert.Contains(t, list, "2024-04-01 12:00:00")

	h.mustRun(t, "source", "remove", "1")
	assert.Contains(t, h.mustRun(t, "source", "list"), "No sources configured.")
	assert.Contains(t, h.mustRun(t, "due", "1"), "2+2?")
}

func TestRemindOnce(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "deck", "create", "Spanish")
	assert.Equal(t, "0 cards due\n", h.mustRun(t, "remind", "--once"))

	h.mustRun(t, "card", "add", "1", "hola", "hello")
	assert.Equal(t, "1 card due\n", h.mustRun(t, "remind", "--once"))
}
