// Package site serves the blog over HTTP and exports it as static files. Pages are html/template
// views filled from a PostSource; the only state it owns is the optional newsletter store.
package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hypergopher/markblog"
	"github.com/hypergopher/markblog/internal/config"
)

const (
	// PageSize is the number of posts per blog index page.
	PageSize = 9
	// HomePostCount is the number of recent posts on the home page.
	HomePostCount = 3
	// HomeTagCount is the number of tags on the home page.
	HomeTagCount = 10
)

// PostSource answers the content queries the pages are built from. *markblog.Store implements it.
type PostSource interface {
	Posts() []*markblog.Post
	Post(slug string) (*markblog.Post, bool)
	PostsByTag(tag string) []*markblog.Post
	Search(query string) []*markblog.Post
	Tags() []markblog.TagCount
}

// App is the blog web application. It wires the post source, the newsletter store, the views
// and the echo routes together.
type App struct {
	Config      config.Config
	Echo        *echo.Echo
	Posts       PostSource
	Subscribers markblog.SubscriberStore // Subscribers is nil when the newsletter is disabled.

	logger   *slog.Logger
	renderer *markblog.Renderer
	views    *Views
	now      func() time.Time
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the logger used for request and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithClock sets the clock used for the footer year.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New creates the App and registers its middleware and routes. subs may be nil.
func New(cfg config.Config, posts PostSource, subs markblog.SubscriberStore, opts ...Option) (*App, error) {
	a := &App{
		Config:      cfg,
		Echo:        echo.New(),
		Posts:       posts,
		Subscribers: subs,
		renderer:    markblog.NewRenderer(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = markblog.DefaultLogger()
	}

	views, err := NewViews()
	if err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}
	a.views = views

	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	a.setupMiddleware()
	a.setupRoutes()

	return a, nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/", a.handleHome)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/:slug", a.handlePost)
	e.GET("/tags", a.handleTags)
	e.GET("/tags/:tag", a.handleTag)
	e.GET("/search", a.handleSearch)
	e.GET("/api/search", a.handleAPISearch)
	e.GET("/subscribe", a.handleSubscribeForm)
	e.POST("/subscribe", a.handleSubscribe)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/theme.css", a.handleThemeCSS)
}

// ServeHTTP lets the App be used as an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Echo.ServeHTTP(w, r)
}

// Start serves the site on the configured address until ctx is done, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving site", slog.String("addr", a.Config.Server.Addr))
		errCh <- a.Echo.Start(a.Config.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutting down")
		return a.Echo.Shutdown(shutdownCtx)
	}
}

// Close releases the newsletter store.
func (a *App) Close() error {
	if a.Subscribers != nil {
		return a.Subscribers.Close()
	}
	return nil
}
