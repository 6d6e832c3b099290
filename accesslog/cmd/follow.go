package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/sarchlab/accesslog/follow"
	"github.com/sarchlab/accesslog/store"
	"github.com/spf13/cobra"
)

func newFollowCmd(opts *options) *cobra.Command {
	var fromStart bool

	followCmd := &cobra.Command{
		Use:   "follow",
		Short: "Print accesses as they are appended to the store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			f := follow.NewFollower(opts.store()).WithFromStart(fromStart)

			err := f.Start(ctx, func(r store.Record) {
				fmt.Fprintln(out, r.String())
			})
			if err != nil {
				return err
			}

			<-f.Done()

			return nil
		},
	}

	followCmd.Flags().BoolVar(&fromStart, "from-start", false,
		"Print the existing records first")

	return followCmd
}
