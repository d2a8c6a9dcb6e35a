package app

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dirsync/dirsync/internal/sync"
)

func init() { //nolint: gochecknoinits
	exportCmd.Flags().Uint64Var(&exportUserID, "user", 0, "Export a single local user id instead of every linked user")

	rootCmd.AddCommand(importCmd, exportCmd)
}

var (
	exportUserID uint64

	importCmd = &cobra.Command{
		Use:   "import",
		Short: "Import directory group members into the local user store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := start()
			if err != nil {
				return err
			}

			importer, err := d.Importer()
			if err != nil {
				return err
			}

			report, ok := importer.Run(cmd.Context())

			return printReport(cmd.OutOrStdout(), "import", report, ok)
		},
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write syncable local attributes back to the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := start()
			if err != nil {
				return err
			}

			exporter, err := d.Exporter()
			if err != nil {
				return err
			}

			report, ok := exporter.Run(cmd.Context(), exportUserID)

			return printReport(cmd.OutOrStdout(), "export", report, ok)
		},
	}
)

// ErrRunFailed is returned when a sync run did not start.
var ErrRunFailed = errors.New("sync run did not start")

func printReport(w io.Writer, direction string, report sync.Report, ok bool) error {
	_, _ = fmt.Fprintf(w, "%s: %d added, %d updated, %d skipped, %d failed in %s\n",
		direction, report.Added, report.Updated, report.Skipped, report.Failed, report.Elapsed.Round(time.Millisecond))

	if !ok {
		return fmt.Errorf("%s: %w", direction, ErrRunFailed)
	}

	return nil
}
