package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store file if it does not exist.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := opts.store()

			err := s.EnsureStore()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Store ready: %s\n", s.Path())

			return nil
		},
	}
}
