package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) sourceCommand() *cobra.Command {
	source := &cobra.Command{
		Use:   "source",
		Short: "Manage markdown card sources",
		Long: `Manage markdown card sources.
A source is a local directory or a git repository whose markdown notes
(Q:/A:/C: blocks) are synced into a deck.`,
	}

	add := &cobra.Command{
		Use:   "add [deck-id] [path-or-git-url]",
		Short: "Bind a directory or git repository to a deck",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			deckID, err := parseID(args[0], "deck")
			if err != nil {
				return err
			}
			s, err := a.syncer.AddSource(cmd.Context(), deckID, args[1])
			if err != nil {
				return errors.Wrap(err, "add source")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %d: %s\n", s.Type, s.ID, s.Path)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := a.syncer.ListSources(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "list sources")
			}
			if len(sources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sources configured.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDECK\tTYPE\tPATH\tLAST SYNCED")
			for _, s := range sources {
				last := "never"
				if s.LastScanned != nil {
					last = s.LastScanned.In(a.boundary.Location()).Format(time.DateTime)
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", s.ID, s.DeckID, s.Type, s.Path, last)
			}
			return w.Flush()
		},
	}

	remove := &cobra.Command{
		Use:   "remove [source-id]",
		Short: "Remove a source. Cards it created are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "source")
			if err != nil {
				return err
			}
			if err := a.syncer.RemoveSource(cmd.Context(), id); err != nil {
				return errors.Wrap(err, "remove source")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed source %d\n", id)
			return nil
		},
	}

	source.AddCommand(add, list, remove)
	return source
}

func (a *app) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync every source into its deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.syncer.SyncAll(cmd.Context())
			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(out, "Source %d: %d notes, %d added, %d deleted", r.Source.ID, r.Parsed, r.Added, r.Deleted)
				if len(r.Errors) > 0 {
					fmt.Fprintf(out, ", %d errors", len(r.Errors))
				}
				fmt.Fprintln(out)
				for _, e := range r.Errors {
					fmt.Fprintf(out, "  %v\n", e)
				}
			}
			if err != nil {
				return errors.Wrap(err, "sync")
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No sources configured.")
			}
			return nil
		},
	}
}
