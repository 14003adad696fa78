// Package parser extracts question/answer notes from markdown files.
//
// A note starts with a "Q:" line, followed by "A:" and optionally "C:"
// (context) lines. Unprefixed lines continue the current field. A line that
// is exactly "---" ends the current note.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Note is a single parsed question with its answer and optional context.
type Note struct {
	Question string
	Answer   string
	Context  string
}

// Back is the back side of the card made from the note: the answer,
// followed by the context when there is one.
func (n Note) Back() string {
	if n.Context == "" {
		return n.Answer
	}
	return n.Answer + "\n\n" + n.Context
}

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
)

var prefixes = []struct {
	prefix string
	state  state
}{
	{questionPrefix, readingQuestion},
	{answerPrefix, readingAnswer},
	{contextPrefix, readingContext},
}

// ParseFile reads a file from the given path and extracts all notes.
func ParseFile(path string) ([]Note, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all notes. Notes without a
// question are dropped.
func Parse(r io.Reader) ([]Note, error) {
	scanner := bufio.NewScanner(r)
	var notes []Note
	var current Note
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch currentState {
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		case readingContext:
			current.Context = content
		}
		block = nil
	}

	finishNote := func() {
		flushBlock()
		if current.Question != "" {
			notes = append(notes, current)
		}
		current = Note{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			finishNote()
			continue
		}

		next, content, ok := prefixed(line)
		if !ok {
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingQuestion && currentState != seeking {
			// A new question always starts a new note.
			finishNote()
		} else {
			flushBlock()
		}
		currentState = next
		block = append(block, content)
	}

	finishNote()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}

// prefixed reports whether line starts a field, and returns the field and
// the rest of the line without the prefix and a single following space.
func prefixed(line string) (state, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.state, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}
