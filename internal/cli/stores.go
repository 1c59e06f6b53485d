package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hypergopher/markblog"
	"github.com/hypergopher/markblog/bboltstore"
	"github.com/hypergopher/markblog/internal/config"
	"github.com/hypergopher/markblog/sqlitestore"
)

var errNewsletterDisabled = errors.New("newsletter is disabled (newsletter.backend is none)")

// openSubscribers opens and initializes the configured subscriber store. It returns nil when
// the newsletter is disabled.
func openSubscribers(cfg config.NewsletterConfig, logger *slog.Logger) (markblog.SubscriberStore, error) {
	var subs markblog.SubscriberStore

	switch cfg.Backend {
	case config.BackendNone:
		return nil, nil
	case config.BackendBBolt:
		subs = bboltstore.New(cfg.Path, logger)
	case config.BackendSQLite:
		db, err := sqlitestore.NewDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		subs = sqlitestore.New(db, "subscribers")
	default:
		return nil, fmt.Errorf("unknown newsletter backend %q", cfg.Backend)
	}

	if err := subs.Init(); err != nil {
		_ = subs.Close()
		return nil, fmt.Errorf("failed to initialize %s subscriber store: %w", cfg.Backend, err)
	}

	logger.Debug("subscriber store ready",
		slog.String("backend", cfg.Backend),
		slog.String("path", cfg.Path))
	return subs, nil
}
