package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/conorfennell/srs/internal/domain"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) dueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "due [deck-id]",
		Short: "List the cards of a deck that are due today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			cards, err := a.svc.DueNow(cmd.Context(), deckID)
			if err != nil {
				return errors.Wrap(err, "list due cards")
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cards due for review today!")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFRONT")
			for _, c := range cards {
				fmt.Fprintf(w, "%d\t%s\n", c.ID, truncate(c.Front, 60))
			}
			return w.Flush()
		},
	}
}

func (a *app) reviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "review [deck-id]",
		Short: "Start a review session for a deck",
		Long: `Start a review session for a deck.
Each due card shows its front; press Enter to reveal the back and then
answer y if you knew it, n if you did not, or q to stop. Cards answered
wrong come back before the session ends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			return a.review(cmd, deckID)
		},
	}
}

func (a *app) review(cmd *cobra.Command, deckID int64) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	reviewed := 0
	for {
		cards, err := a.svc.DueNow(ctx, deckID)
		if err != nil {
			return errors.Wrap(err, "list due cards")
		}
		if len(cards) == 0 {
			break
		}

		for i, c := range cards {
			fmt.Fprintln(out, "\n========================================")
			fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(cards), c.Front)
			fmt.Fprintln(out, "========================================")
			fmt.Fprint(out, "Press Enter to show the answer...")
			if _, err := reader.ReadString('\n'); err != nil {
				return a.endReview(out, reviewed, err)
			}
			fmt.Fprintf(out, "\n%s\n\n", c.Back)

			correct, quit, err := promptAnswer(out, reader)
			if err != nil {
				return a.endReview(out, reviewed, err)
			}
			if quit {
				return a.endReview(out, reviewed, nil)
			}

			state, err := a.answer(cmd, c.ID, correct)
			if err != nil {
				return err
			}
			reviewed++
			fmt.Fprintln(out, describeAnswer(state, correct))
		}
	}

	if reviewed == 0 {
		fmt.Fprintln(out, "No cards due for review today!")
		return nil
	}
	return a.endReview(out, reviewed, nil)
}

func (a *app) endReview(out io.Writer, reviewed int, err error) error {
	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "read answer")
	}
	fmt.Fprintf(out, "\nReview session complete. %d %s answered.\n", reviewed, plural(reviewed, "card"))
	return nil
}

// promptAnswer asks until it gets y, n or q.
func promptAnswer(out io.Writer, reader *bufio.Reader) (correct, quit bool, err error) {
	for {
		fmt.Fprint(out, "Did you know it? [y/n/q]: ")
		line, err := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, false, nil
		case "n", "no":
			return false, false, nil
		case "q", "quit":
			return false, true, nil
		}
		if err != nil {
			return false, false, err
		}
		fmt.Fprintln(out, "Please answer y, n or q.")
	}
}

func (a *app) answerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "answer [card-id] [correct|wrong]",
		Short: "Record an answer for a single card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cardID, err := parseID(args[0], "card")
			if err != nil {
				return err
			}
			var correct bool
			switch strings.ToLower(args[1]) {
			case "correct", "c", "y":
				correct = true
			case "wrong", "w", "n":
			default:
				return errors.Wrapf(domain.ErrInvalidInput, "answer must be correct or wrong, got %q", args[1])
			}
			state, err := a.answer(cmd, cardID, correct)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeAnswer(state, correct))
			return nil
		},
	}
}

func (a *app) answer(cmd *cobra.Command, cardID int64, correct bool) (domain.ScheduleState, error) {
	if correct {
		state, err := a.sched.AnswerCorrect(cmd.Context(), cardID)
		return state, errors.Wrapf(err, "answer card %d", cardID)
	}
	state, err := a.sched.AnswerWrong(cmd.Context(), cardID)
	return state, errors.Wrapf(err, "answer card %d", cardID)
}

func describeAnswer(state domain.ScheduleState, correct bool) string {
	var msg string
	active, ok := state.Active()
	switch {
	case !ok:
		msg = "Card suspended. It will not be shown again."
	case !correct:
		msg = "Card will be shown again today."
	default:
		msg = fmt.Sprintf("Next review in %d %s.", active.IntervalDays, plural(active.IntervalDays, "day"))
	}
	if state.IsLeech {
		msg += " This card is a leech."
	}
	return msg
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
