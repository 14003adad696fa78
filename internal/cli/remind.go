package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conorfennell/srs/internal/reminder"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *app) remindCommand() *cobra.Command {
	var (
		once      bool
		syncEvery time.Duration
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Periodically report decks with cards due",
		Long: `Periodically report decks with cards due.
Runs until interrupted. The interval is reminder.every in the configuration
file. With --sync-every the sources are synced on their own interval too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := reminder.New(a.svc, reminder.LogNotifier{}, a.cfg.Reminder.Every, a.boundary.Location())
			if once {
				total, err := r.Check(cmd.Context())
				if err != nil {
					return errors.Wrap(err, "check due cards")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d %s due\n", total, plural(total, "card"))
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return r.Run(ctx)
			})
			if syncEvery > 0 {
				g.Go(func() error {
					return a.syncLoop(ctx, syncEvery)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Check once, print the number of due cards and exit")
	cmd.Flags().DurationVar(&syncEvery, "sync-every", 0, "Also sync sources on this interval (0 disables)")
	return cmd
}

func (a *app) syncLoop(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.syncer.SyncAll(ctx); err != nil {
				slog.Error("Scheduled sync failed", "error", err)
			}
		}
	}
}
