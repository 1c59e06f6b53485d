package cli

import (
	"github.com/spf13/cobra"

	"github.com/hypergopher/markblog/site"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			subs, err := openSubscribers(a.cfg.Newsletter, a.logger)
			if err != nil {
				return err
			}

			srv, err := site.New(a.cfg, a.store(), subs, site.WithLogger(a.logger))
			if err != nil {
				if subs != nil {
					_ = subs.Close()
				}
				return err
			}
			defer srv.Close()

			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (overrides server.addr)")
	return cmd
}
