package cmd

import (
	"os"
	"os/signal"

	"github.com/sarchlab/accesslog/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		port int
		open bool
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("port") {
				port = opts.cfg.Port
			}

			srv := server.NewServer(opts.store()).
				WithPortNumber(port).
				WithBrowser(open)

			_, err := srv.Start()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			<-ctx.Done()

			return srv.Stop()
		},
	}

	serveCmd.Flags().IntVar(&port, "port", 0,
		"Port to listen on; a random port is used when 0")
	serveCmd.Flags().BoolVar(&open, "open", false,
		"Open the store in a browser")

	return serveCmd
}
