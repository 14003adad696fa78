package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) deckCommand() *cobra.Command {
	deck := &cobra.Command{
		Use:   "deck",
		Short: "Manage decks",
	}

	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.svc.CreateDeck(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrap(err, "create deck")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deck %d: %s\n", d.ID, d.Name)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List decks with the number of cards due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			decks, err := a.svc.DecksWithCount(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "list decks")
			}
			if len(decks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No decks yet. Create one with: srs deck create <name>")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMODIFIER\tDUE")
			for _, d := range decks {
				fmt.Fprintf(w, "%d\t%s\t%d%%\t%d\n", d.ID, d.Name, d.IntervalModifier, d.ScheduledCardCount)
			}
			return w.Flush()
		},
	}

	var (
		editName     string
		editModifier int
	)
	edit := &cobra.Command{
		Use:   "edit [deck-id]",
		Short: "Rename a deck or change its interval modifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			current, err := a.svc.GetDeck(cmd.Context(), id)
			if err != nil {
				return errors.Wrap(err, "find deck")
			}
			name, modifier := current.Name, current.IntervalModifier
			if cmd.Flags().Changed("name") {
				name = editName
			}
			if cmd.Flags().Changed("modifier") {
				modifier = editModifier
			}
			if err := a.svc.EditDeck(cmd.Context(), id, name, modifier); err != nil {
				return errors.Wrap(err, "edit deck")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated deck %d: %s (%d%%)\n", id, name, modifier)
			return nil
		},
	}
	edit.Flags().StringVar(&editName, "name", "", "New deck name")
	edit.Flags().IntVar(&editModifier, "modifier", 100, "Interval modifier in percent")

	del := &cobra.Command{
		Use:   "delete [deck-id]",
		Short: "Delete a deck and all of its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			if err := a.svc.DeleteDeck(cmd.Context(), id); err != nil {
				return errors.Wrap(err, "delete deck")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted deck %d\n", id)
			return nil
		},
	}

	deck.AddCommand(create, list, edit, del)
	return deck
}
