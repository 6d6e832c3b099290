package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/sarchlab/accesslog/store"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *options) *cobra.Command {
	var parsed bool

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.store()

			if !parsed {
				content, err := s.ReadStore()
				if err != nil {
					return err
				}

				fmt.Fprint(cmd.OutOrStdout(), content)

				return nil
			}

			records, err := s.Records()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tSEQ\tADDR\tTAG\tIDX\tOFF\tDATA")

			for _, r := range records {
				seq := r.SeqName
				if seq == "" {
					seq = store.NoSeqName
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Time.Format(store.TimeLayout), seq,
					r.Address, r.Tag, r.Index, r.Offset, r.Data)
			}

			return tw.Flush()
		},
	}

	showCmd.Flags().BoolVar(&parsed, "parsed", false,
		"Print the records as a table")

	return showCmd
}
