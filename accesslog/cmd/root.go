// Package cmd provides the command-line interface of accesslog.
package cmd

import (
	"github.com/sarchlab/accesslog/config"
	"github.com/sarchlab/accesslog/store"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// options are the settings shared by all the subcommands.
type options struct {
	cfg       config.Config
	storePath string
}

func (o *options) store() *store.Store {
	return store.New(o.storePath)
}

// NewRootCmd creates the base command with all the subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "accesslog",
		Short: "accesslog records simulated cache accesses into a text file.",
		Long: `accesslog appends one human-readable line per simulated cache ` +
			`access (address, tag, index, offset and data as binary strings) ` +
			`to a store file and reads the file back. The store defaults to ` +
			store.DefaultPath + ` in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			opts.cfg = cfg
			if !cmd.Flags().Changed("path") {
				opts.storePath = cfg.StorePath
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.storePath, "path",
		store.DefaultPath, "The store file to use")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newRecordCmd(opts),
		newShowCmd(opts),
		newReplayCmd(opts),
		newExportCmd(opts),
		newFollowCmd(opts),
		newServeCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command and exits. Functions registered with atexit
// run before the process ends.
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
