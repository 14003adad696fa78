package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []Note
	}{
		{
			name:     "Question and answer",
			input:    "Q: Capital of France?\nA: Paris",
			expected: []Note{{Question: "Capital of France?", Answer: "Paris"}},
		},
		{
			name:     "With context",
			input:    "Q: 1+1?\nA: 2\nC: Arithmetic",
			expected: []Note{{Question: "1+1?", Answer: "2", Context: "Arithmetic"}},
		},
		{
			name:     "Multiline fields",
			input:    "\nQ: Primary colors?\nA: Red\nBlue\nYellow\nC: Painting\nnot mixing\n",
			expected: []Note{{Question: "Primary colors?", Answer: "Red\nBlue\nYellow", Context: "Painting\nnot mixing"}},
		},
		{
			name:  "Next question starts a new note",
			input: "Q: First\nA: One\n\nQ: Second\nA: Two\n\n",
			expected: []Note{
				{Question: "First", Answer: "One"},
				{Question: "Second", Answer: "Two"},
			},
		},
		{
			name:     "Prefix without space",
			input:    "Q:Question\nA:Answer",
			expected: []Note{{Question: "Question", Answer: "Answer"}},
		},
		{
			name:     "Text before the first question is ignored",
			input:    "# Heading\nsome prose\nQ: Kept\nA: yes",
			expected: []Note{{Question: "Kept", Answer: "yes"}},
		},
		{
			name:     "Answer without question is dropped",
			input:    "A: orphan\nC: nothing",
			expected: nil,
		},
		{
			name:     "Plain text",
			input:    "This file has no notes.",
			expected: nil,
		},
		{
			name:  "Separator ends a note",
			input: "Q: First\nA: One\n---\nstray text\nQ: Second\nA: Two\nC: Numbers",
			expected: []Note{
				{Question: "First", Answer: "One"},
				{Question: "Second", Answer: "Two", Context: "Numbers"},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			notes, err := Parse(strings.NewReader(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, notes)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.md")
	require.NoError(t, os.WriteFile(path, []byte("Q: From a file\nA: yes\n"), 0o644))

	notes, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []Note{{Question: "From a file", Answer: "yes"}}, notes)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNoteBack(t *testing.T) {
	assert.Equal(t, "Paris", Note{Question: "q", Answer: "Paris"}.Back())
	assert.Equal(t, "Paris\n\nGeography", Note{Question: "q", Answer: "Paris", Context: "Geography"}.Back())
}
