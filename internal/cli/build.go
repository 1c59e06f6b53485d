package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hypergopher/markblog/site"
)

func newBuildCommand(a *app) *cobra.Command {
	var (
		out   string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Export the blog as static files",
		Long: `build renders every page of the blog into the output directory, which is removed and
recreated on each build. With --watch it keeps rebuilding when the content directory changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = a.cfg.Build.Out
			}

			srv, err := site.New(a.cfg, a.store(), nil, site.WithLogger(a.logger))
			if err != nil {
				return err
			}

			builder := site.NewBuilder(srv)
			if err := builder.Build(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site written to %s\n", out)

			if !watch {
				return nil
			}
			return builder.Watch(cmd.Context(), a.cfg.Content.Dir, out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (overrides build.out)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when content changes")
	return cmd
}
