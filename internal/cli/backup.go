package cli

import (
	"fmt"

	"github.com/conorfennell/srs/internal/backup"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) exportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup of the whole database to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := backup.ExportFile(cmd.Context(), a.db, args[0])
			if res != backup.Success {
				return errors.Wrapf(err, "export %s", res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported database to %s\n", args[0])
			return nil
		},
	}
}

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace the database with a backup",
		Long: `Replace the database with a backup written by export.
The backup is checked before anything is replaced; on failure the current
database is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := backup.ImportFile(cmd.Context(), a.db, args[0])
			if res != backup.Success {
				return errors.Wrapf(err, "import %s", res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported database from %s\n", args[0])
			return nil
		},
	}
}
