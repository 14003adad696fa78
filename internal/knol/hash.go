// Package knol identifies synced notes by their content.
package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/srs/internal/parser"
)

// Normalize returns the canonical text of a note: every field lowercased,
// with CRLF turned into LF and surrounding whitespace trimmed, one field per
// line.
func Normalize(note parser.Note) string {
	fields := []string{note.Question, note.Answer, note.Context}
	for i, f := range fields {
		f = strings.ReplaceAll(strings.ToLower(f), "\r\n", "\n")
		fields[i] = strings.TrimSpace(f)
	}
	return strings.Join(fields, "\n")
}

// Hash is the hex SHA-256 of the normalized note. A card synced from a note
// keeps its hash as long as the note only changes in case or surrounding
// whitespace.
func Hash(note parser.Note) string {
	sum := sha256.Sum256([]byte(Normalize(note)))
	return hex.EncodeToString(sum[:])
}
