package cmd

import (
	"github.com/spf13/cobra"
)

type recordFlags struct {
	address string
	tag     string
	index   string
	offset  string
	data    string
	seqName string
}

func newRecordCmd(opts *options) *cobra.Command {
	f := &recordFlags{}

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Append one access to the store.",
		Long: "`record --addr 00010010 --tag 0001 --idx 0010 --off 00 " +
			"--data 11111111` appends one access. The values are stored as given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seqName := f.seqName
			if !cmd.Flags().Changed("seq") {
				seqName = opts.cfg.SeqName
			}

			return opts.store().RecordAccess(
				f.address, f.tag, f.index, f.offset, f.data, seqName)
		},
	}

	flags := recordCmd.Flags()
	flags.StringVar(&f.address, "addr", "", "Full binary address")
	flags.StringVar(&f.tag, "tag", "", "Binary tag bits")
	flags.StringVar(&f.index, "idx", "", "Binary index bits")
	flags.StringVar(&f.offset, "off", "", "Binary offset bits")
	flags.StringVar(&f.data, "data", "", "Binary data")
	flags.StringVar(&f.seqName, "seq", "", "Name of the access sequence")

	for _, name := range []string{"addr", "tag", "idx", "off", "data"} {
		_ = recordCmd.MarkFlagRequired(name)
	}

	return recordCmd
}
