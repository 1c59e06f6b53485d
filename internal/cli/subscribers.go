package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hypergopher/markblog"
)

func newSubscribersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Manage newsletter subscribers",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List newsletter subscribers, oldest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSubscribers(func(subs markblog.SubscriberStore) error {
					list, err := subs.List(cmd.Context())
					if err != nil {
						return err
					}
					if len(list) == 0 {
						fmt.Fprintln(cmd.OutOrStdout(), "No subscribers")
						return nil
					}

					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "EMAIL\tNAME\tINTERESTS\tSUBSCRIBED")
					for _, sub := range list {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
							sub.Email, sub.Name, strings.Join(sub.Interests, ", "),
							sub.CreatedAt.Local().Format(time.DateTime))
					}
					return w.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "remove <email>",
			Short: "Remove a newsletter subscriber",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withSubscribers(func(subs markblog.SubscriberStore) error {
					if err := subs.Delete(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", markblog.NormalizeEmail(args[0]))
					return nil
				})
			},
		},
	)

	return cmd
}

func (a *app) withSubscribers(fn func(markblog.SubscriberStore) error) error {
	subs, err := openSubscribers(a.cfg.Newsletter, a.logger)
	if err != nil {
		return err
	}
	if subs == nil {
		return errNewsletterDisabled
	}
	defer subs.Close()

	return fn(subs)
}
