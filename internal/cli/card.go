package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/conorfennell/srs/internal/domain"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) cardCommand() *cobra.Command {
	card := &cobra.Command{
		Use:   "card",
		Short: "Manage cards",
	}

	add := &cobra.Command{
		Use:   "add [deck-id] [front] [back]",
		Short: "Add a new card to a deck",
		Long:  `Add a new card to a deck. The card is due for review immediately.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			c, err := a.svc.CreateCard(cmd.Context(), deckID, args[1], args[2])
			if err != nil {
				return errors.Wrap(err, "add card")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added card %d to deck %d\n", c.ID, c.DeckID)
			return nil
		},
	}

	var (
		editDeck  int64
		editFront string
		editBack  string
	)
	edit := &cobra.Command{
		Use:   "edit [card-id]",
		Short: "Change a card's text or move it to another deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "card")
			if err != nil {
				return err
			}
			current, _, err := a.svc.GetCardAndDeck(cmd.Context(), id)
			if err != nil {
				return errors.Wrap(err, "find card")
			}
			deckID, front, back := current.DeckID, current.Front, current.Back
			if cmd.Flags().Changed("deck") {
				deckID = editDeck
			}
			if cmd.Flags().Changed("front") {
				front = editFront
			}
			if cmd.Flags().Changed("back") {
				back = editBack
			}
			if err := a.svc.EditCard(cmd.Context(), id, deckID, front, back); err != nil {
				return errors.Wrap(err, "edit card")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated card %d\n", id)
			return nil
		},
	}
	edit.Flags().Int64Var(&editDeck, "deck", 0, "Move the card to this deck")
	edit.Flags().StringVar(&editFront, "front", "", "New front text")
	edit.Flags().StringVar(&editBack, "back", "", "New back text")

	del := &cobra.Command{
		Use:   "delete [card-id]",
		Short: "Delete a card with its schedule and answer history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "card")
			if err != nil {
				return err
			}
			if err := a.svc.DeleteCard(cmd.Context(), id); err != nil {
				return errors.Wrap(err, "delete card")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %d\n", id)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show [card-id]",
		Short: "Show a card and its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "card")
			if err != nil {
				return err
			}
			c, d, err := a.svc.GetCardAndDeck(cmd.Context(), id)
			if err != nil {
				return errors.Wrap(err, "find card")
			}
			sched, err := a.svc.GetSchedule(cmd.Context(), id)
			if err != nil {
				return errors.Wrap(err, "find schedule")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Card %d in deck %q\n", c.ID, d.Name)
			fmt.Fprintf(out, "Front:  %s\n", c.Front)
			fmt.Fprintf(out, "Back:   %s\n", c.Back)
			fmt.Fprintf(out, "Status: %s\n", a.describeSchedule(sched))
			return nil
		},
	}

	var (
		limit  int
		offset int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Browse all cards with their schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cards, err := a.svc.BrowseCards(cmd.Context(), limit, offset)
			if err != nil {
				return errors.Wrap(err, "browse cards")
			}
			total, err := a.svc.CountCards(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "count cards")
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDECK\tFRONT\tSTATUS")
			for _, c := range cards {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.DeckName, truncate(c.Front, 40), a.describeSchedule(c.Schedule))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d cards\n", len(cards), total)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "Maximum number of cards to list")
	list.Flags().IntVar(&offset, "offset", 0, "Number of cards to skip")

	card.AddCommand(add, edit, del, show, list)
	return card
}

func (a *app) describeSchedule(s domain.ScheduleState) string {
	var desc string
	if active, ok := s.Active(); ok {
		when := active.ScheduledFor.In(a.boundary.Location()).Format(time.DateTime)
		if active.IntervalDays == 0 {
			desc = "new, due " + when
		} else {
			desc = fmt.Sprintf("every %dd, due %s", active.IntervalDays, when)
		}
	} else {
		desc = "suspended"
	}
	if s.IsLeech {
		desc += " (leech)"
	}
	return desc
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
