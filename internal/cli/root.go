// Package cli implements the markblog command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hypergopher/markblog"
	"github.com/hypergopher/markblog/internal/config"
)

// app is the state shared by every command once the configuration is loaded.
type app struct {
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCommand returns the markblog command with all of its subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "markblog",
		Short: "A blog served from a directory of markdown files",
		Long: `markblog serves a blog whose posts are markdown files with YAML or TOML front matter.
It can run as a web server, export the site as static files, and scaffold new posts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is ./markblog.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newServeCommand(a),
		newBuildCommand(a),
		newNewCommand(a),
		newTagsCommand(a),
		newSubscribersCommand(a),
	)

	return root
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func (a *app) initialize(logOut io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) store() *markblog.Store {
	return markblog.NewStore(markblog.Options{
		ContentDir: a.cfg.Content.Dir,
		Extension:  a.cfg.Content.Extension,
		Logger:     a.logger,
	})
}
