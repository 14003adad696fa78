// Package cli implements the srs command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/conorfennell/srs/internal/clock"
	"github.com/conorfennell/srs/internal/config"
	"github.com/conorfennell/srs/internal/domain"
	"github.com/conorfennell/srs/internal/logging"
	"github.com/conorfennell/srs/internal/random"
	"github.com/conorfennell/srs/internal/scheduler"
	"github.com/conorfennell/srs/internal/sourcesync"
	"github.com/conorfennell/srs/internal/srs"
	"github.com/conorfennell/srs/internal/stats"
	"github.com/conorfennell/srs/internal/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// app holds the dependencies shared by every command. They are built once
// the flags are parsed.
type app struct {
	clock clock.Clock
	rand  random.Source

	cfg      *config.Config
	boundary clock.DayBoundary
	db       *storage.DB
	svc      *srs.Service
	sched    *scheduler.Scheduler
	stats    *stats.Aggregator
	syncer   *sourcesync.Syncer
}

// Option customizes the application before it runs.
type Option func(*app)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(a *app) { a.clock = c }
}

// WithRandom replaces the source of interval fuzz.
func WithRandom(r random.Source) Option {
	return func(a *app) { a.rand = r }
}

// Execute runs the command line of the current process and exits non-zero on failure.
func Execute() {
	if err := Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Run executes the command line args.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) error {
	a := &app{clock: clock.System{}, rand: random.New()}
	for _, opt := range opts {
		opt(a)
	}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "srs",
		Short: "A spaced repetition flashcard scheduler",
		Long: `srs schedules flashcards with growing review intervals.

Cards live in decks. Answer the cards that are due each day and srs decides
when you see them next. A review day starts at 04:00 local time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		a.deckCommand(),
		a.cardCommand(),
		a.dueCommand(),
		a.reviewCommand(),
		a.answerCommand(),
		a.statsCommand(),
		a.reportCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.sourceCommand(),
		a.syncCommand(),
		a.remindCommand(),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logging.Setup(cmd.ErrOrStderr(), cfg.Log); err != nil {
		return err
	}
	boundary, err := cfg.DayBoundary()
	if err != nil {
		return err
	}

	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return errors.Wrapf(err, "open database %s", cfg.Database.Path)
	}

	a.cfg = cfg
	a.boundary = boundary
	a.db = db
	a.svc = srs.NewService(db, a.clock, boundary)
	a.sched = scheduler.New(db, a.clock, a.rand, cfg.Scheduler)
	a.stats = stats.NewAggregator(db, a.clock, boundary)
	a.syncer = sourcesync.New(db, a.svc, a.clock, cfg.Sources.ReposDir)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(domain.ErrInvalidInput, "invalid %s ID %q", what, s)
	}
	return id, nil
}
