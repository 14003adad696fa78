package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/conorfennell/srs/internal/report"
	"github.com/conorfennell/srs/internal/stats"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show card counts and answer accuracy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.stats.Stats(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "compute stats")
			}

			out := cmd.OutOrStdout()
			g := r.Global
			fmt.Fprintf(out, "Active: %d  Suspended: %d  Leeches: %d  Due tomorrow: %d\n\n",
				g.ActiveCount, g.SuspendedCount, g.LeechCount, g.ForReviewCount)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "DECK\tACTIVE\tSUSPENDED\tLEECHES\tANSWERS (%dd)\tACCURACY\n", stats.AccuracyWindowDays)
			for _, d := range r.Decks {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d%%\n",
					d.Name, d.ActiveCount, d.SuspendedCount, d.LeechCount, d.AnswerCount(), stats.Accuracy(d))
			}
			return w.Flush()
		},
	}
}

func (a *app) reportCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the statistics to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.stats.Stats(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "compute stats")
			}
			f, err := os.Create(outPath)
			if err != nil {
				return errors.Wrap(err, "create report file")
			}
			if err := report.Write(f, r); err != nil {
				f.Close()
				return errors.Wrap(err, "write report")
			}
			if err := f.Close(); err != nil {
				return errors.Wrap(err, "close report file")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "srs-stats.xlsx", "Path of the workbook to write")
	return cmd
}
