package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hypergopher/markblog"
)

func newNewCommand(a *app) *cobra.Command {
	var (
		slug    string
		author  string
		excerpt string
		format  string
		tags    []string
		dated   bool
	)

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a new post in the content directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if author == "" {
				author = a.cfg.Site.Author
			}

			now := time.Now()
			if dated && slug == "" {
				slug = markblog.SlugifyTitleWithDate(args[0], now)
			}

			path, err := markblog.CreatePostFile(markblog.NewPostFile{
				Dir:       a.cfg.Content.Dir,
				Extension: a.cfg.Content.Extension,
				Slug:      slug,
				Format:    markblog.FrontmatterFormat(format),
				Meta: markblog.PostMeta{
					Title:   args[0],
					Date:    now.Format(markblog.DateLayout),
					Author:  author,
					Excerpt: excerpt,
					Tags:    tags,
				},
				Body: "Write your post here.\n",
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&slug, "slug", "", "file name without extension (default is the slugified title)")
	cmd.Flags().StringVar(&author, "author", "", "post author (default is site.author)")
	cmd.Flags().StringVar(&excerpt, "excerpt", "", "post excerpt")
	cmd.Flags().StringVar(&format, "format", string(markblog.FrontmatterYAML), "front matter format: yaml or toml")
	cmd.Flags().BoolVar(&dated, "dated", false, "prefix the file name with today's date")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma separated tags")
	return cmd
}
