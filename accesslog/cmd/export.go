package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/accesslog/datarecording"
	"github.com/sarchlab/accesslog/exporting"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		format string
		out    string
	)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the store into CSV or an SQLite database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				n   int
				err error
			)

			switch format {
			case "csv":
				n, err = exportCSV(opts, out, cmd.OutOrStdout())
			case "sqlite":
				n, err = exportSQLite(opts, out)
			default:
				return fmt.Errorf(
					"invalid format %q, allowed values are csv and sqlite", format)
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records\n", n)

			return nil
		},
	}

	exportCmd.Flags().StringVar(&format, "format", "csv", "csv or sqlite")
	exportCmd.Flags().StringVar(&out, "out", "",
		"Output file; stdout for csv, a generated name for sqlite")

	return exportCmd
}

func exportCSV(opts *options, out string, stdout io.Writer) (int, error) {
	if out == "" {
		return exporting.ToCSV(opts.store(), stdout)
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, err
	}

	n, err := exporting.ToCSV(opts.store(), f)
	if err != nil {
		f.Close()
		return 0, err
	}

	return n, f.Close()
}

func exportSQLite(opts *options, out string) (int, error) {
	recorder, err := datarecording.New(out)
	if err != nil {
		return 0, err
	}

	n, err := exporting.ToDataRecorder(opts.store(), recorder)
	if err != nil {
		recorder.Close()
		return 0, err
	}

	return n, recorder.Close()
}
