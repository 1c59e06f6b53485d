package site_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/markblog"
	"github.com/hypergopher/markblog/internal/config"
	"github.com/hypergopher/markblog/site"
)

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		Site: config.SiteConfig{
			Name:        "Test Blog",
			URL:         "http://example.com",
			Description: "Posts for testing",
		},
		Server: config.ServerConfig{Addr: ":0"},
		Theme:  config.ThemeConfig{Mode: config.ThemeSystem, Accent: "#ff0066"},
		Newsletter: config.NewsletterConfig{
			Backend:   config.BackendBBolt,
			Interests: []string{"Go", "Design"},
		},
		Social: []config.SocialLink{{Name: "GitHub", URL: "https://github.com/hypergopher"}},
		Log:    config.LogConfig{Level: "info"},
	}
}

func writePost(t *testing.T, dir, slug, title, date, tags, body string) {
	t.Helper()
	source := fmt.Sprintf("---\ntitle: %q\ndate: %q\ntags: [%s]\n---\n%s\n", title, date, tags, body)
	require.NoError(t, os.WriteFile(filepath.Join(dir, slug+".md"), []byte(source), 0644))
}

func seedContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePost(t, dir, "hello-world", "Hello World", "2024-03-01", "go, web", "# Hello\n\nFirst post about goroutines.")
	writePost(t, dir, "css-grid", "CSS Grid", "2024-02-01", "css, web", "Laying out pages with grid.")
	return dir
}

func newStore(dir string) *markblog.Store {
	return markblog.NewStore(markblog.Options{
		ContentDir: dir,
		Logger:     discardLogger(),
		Now:        func() time.Time { return testNow },
	})
}

func newTestApp(t *testing.T, posts site.PostSource, subs markblog.SubscriberStore) *site.App {
	t.Helper()
	app, err := site.New(testConfig(), posts, subs,
		site.WithLogger(discardLogger()),
		site.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return app
}

func get(app *site.App, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

// memorySubscribers is a SubscriberStore kept in a map.
type memorySubscribers struct {
	mu   sync.Mutex
	subs map[string]*markblog.Subscriber
}

func newMemorySubscribers() *memorySubscribers {
	return &memorySubscribers{subs: map[string]*markblog.Subscriber{}}
}

func (m *memorySubscribers) Init() error { return nil }

func (m *memorySubscribers) Add(_ context.Context, sub *markblog.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub.Email]; ok {
		return markblog.ErrSubscriberExists
	}
	m.subs[sub.Email] = sub
	return nil
}

func (m *memorySubscribers) Get(_ context.Context, email string) (*markblog.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[markblog.NormalizeEmail(email)]
	if !ok {
		return nil, markblog.ErrSubscriberNotFound
	}
	return sub, nil
}

func (m *memorySubscribers) List(_ context.Context) ([]*markblog.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := make([]*markblog.Subscriber, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	return subs, nil
}

func (m *memorySubscribers) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, markblog.NormalizeEmail(email))
	return nil
}

func (m *memorySubscribers) Close() error { return nil }

// panickingSource is a PostSource whose Search always panics.
type panickingSource struct {
	site.PostSource
}

func (panickingSource) Search(string) []*markblog.Post {
	panic("index corrupted")
}

func TestRoutes(t *testing.T) {
	app := newTestApp(t, newStore(seedContent(t)), newMemorySubscribers())

	cases := []struct {
		name     string
		target   string
		code     int
		contains []string
	}{
		{"home", "/", http.StatusOK, []string{"<title>Test Blog</title>", "Latest Posts", "Hello World", "CSS Grid", "&copy; 2024 Test Blog"}},
		{"blog", "/blog", http.StatusOK, []string{"<title>Blog | Test Blog</title>", "Hello World", "CSS Grid"}},
		{"post", "/blog/hello-world", http.StatusOK, []string{`<h1 id="hello">Hello</h1>`, "March 1, 2024", "Anonymous", "1 min read", `href="/tags/go"`}},
		{"missing post", "/blog/missing", http.StatusNotFound, []string{"Page Not Found"}},
		{"traversal", "/blog/..%2Fsecret", http.StatusNotFound, []string{"Page Not Found"}},
		{"tags", "/tags", http.StatusOK, []string{"2 posts", `href="/tags/web"`}},
		{"tag", "/tags/web", http.StatusOK, []string{"2 posts tagged with", "Hello World", "CSS Grid"}},
		{"unknown tag", "/tags/rust", http.StatusNotFound, []string{"Page Not Found"}},
		{"search", "/search?q=goroutines", http.StatusOK, []string{"Found 1 result for", "Hello World"}},
		{"search without results", "/search?q=zzz", http.StatusOK, []string{"No results found"}},
		{"search form", "/search", http.StatusOK, []string{`name="q"`}},
		{"unknown route", "/nope", http.StatusNotFound, []string{"Page Not Found"}},
		{"feed", "/feed.xml", http.StatusOK, []string{`<rss version="2.0">`, "<link>http://example.com/blog/hello-world</link>"}},
		{"sitemap", "/sitemap.xml", http.StatusOK, []string{"http://www.sitemaps.org/schemas/sitemap/0.9", "<loc>http://example.com/tags/web</loc>"}},
		{"theme", "/theme.css", http.StatusOK, []string{"--accent: #ff0066;"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(app, tc.target)
			assert.Equal(t, tc.code, rec.Code)
			for _, s := range tc.contains {
				assert.Contains(t, rec.Body.String(), s)
			}
		})
	}
}

func TestRoutes_EmptyContent(t *testing.T) {
	app := newTestApp(t, newStore(t.TempDir()), nil)

	assert.Contains(t, get(app, "/blog").Body.String(), "No blog posts found")
	assert.Contains(t, get(app, "/tags").Body.String(), "No tags found")
	assert.Contains(t, get(app, "/").Body.String(), "No blog posts found")
}

func TestRoutes_TrailingSlashRedirects(t *testing.T) {
	app := newTestApp(t, newStore(seedContent(t)), nil)

	rec := get(app, "/blog/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/blog", rec.Header().Get(echo.HeaderLocation))
}

func TestBlog_Pagination(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 11; i++ {
		writePost(t, dir, fmt.Sprintf("post-%02d", i), fmt.Sprintf("Post %02d", i),
			fmt.Sprintf("2024-01-%02d", i), "go", "Body")
	}
	app := newTestApp(t, newStore(dir), nil)

	cases := []struct {
		target   string
		contains string
	}{
		{"/blog", "Page 1 of 2"},
		{"/blog?page=2", "Page 2 of 2"},
		{"/blog?page=99", "Page 2 of 2"},
		{"/blog?page=abc", "Page 1 of 2"},
	}

	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rec := get(app, tc.target)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.contains)
		})
	}

	assert.Contains(t, get(app, "/blog").Body.String(), `href="/blog?page=2"`)
}

func TestPost_ETag(t *testing.T) {
	app := newTestApp(t, newStore(seedContent(t)), nil)

	rec := get(app, "/blog/hello-world")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.True(t, strings.HasPrefix(etag, `"`))

	rec = get(app, "/blog/hello-world", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = get(app, "/blog/hello-world", "If-None-Match", `"stale"`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPISearch(t *testing.T) {
	app := newTestApp(t, newStore(seedContent(t)), nil)

	cases := []struct {
		name  string
		query string
		slugs []string
	}{
		{"missing query", "", []string{}},
		{"matches content", "?q=GOROUTINES", []string{"hello-world"}},
		{"matches tag", "?q=web", []string{"hello-world", "css-grid"}},
		{"no match", "?q=zzz", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(app, "/api/search"+tc.query)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Body.String(), "["), "body must be a JSON array")

			var posts []markblog.Post
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
			slugs := make([]string, 0, len(posts))
			for _, p := range posts {
				slugs = append(slugs, p.Slug)
			}
			assert.Equal(t, tc.slugs, slugs)
		})
	}
}

func TestAPISearch_Panic(t *testing.T) {
	app := newTestApp(t, panickingSource{PostSource: newStore(seedContent(t))}, nil)

	rec := get(app, "/api/search?q=go")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to search posts"}`, rec.Body.String())

	rec = get(app, "/api/search")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func csrfCookie(t *testing.T, app *site.App) *http.Cookie {
	t.Helper()
	rec := get(app, "/subscribe")
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "_csrf" {
			return c
		}
	}
	t.Fatal("csrf cookie not set")
	return nil
}

func postSubscribe(app *site.App, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	if cookie != nil {
		form.Set("_csrf", cookie.Value)
	}
	req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestSubscribe(t *testing.T) {
	subs := newMemorySubscribers()
	app := newTestApp(t, newStore(seedContent(t)), subs)
	cookie := csrfCookie(t, app)
	assert.Contains(t, get(app, "/subscribe").Body.String(), `name="_csrf" value="`)

	rec := postSubscribe(app, cookie, url.Values{"name": {"Ada"}, "email": {" Ada@Example.com "}, "interests": {"Go"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/subscribe", rec.Header().Get(echo.HeaderLocation))

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "markblog_session" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "flash session cookie not set")

	req := httptest.NewRequest(http.MethodGet, "/subscribe", nil)
	req.AddCookie(sessionCookie)
	page := httptest.NewRecorder()
	app.ServeHTTP(page, req)
	assert.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Thanks for subscribing, Ada! Watch ada@example.com for the next issue.")

	cases := []struct {
		name     string
		form     url.Values
		code     int
		contains string
	}{
		{
			name:     "duplicate signup",
			form:     url.Values{"email": {"ada@example.com"}},
			code:     http.StatusOK,
			contains: "ada@example.com is already subscribed.",
		},
		{
			name:     "invalid email",
			form:     url.Values{"name": {"Bob"}, "email": {"not-an-email"}},
			code:     http.StatusUnprocessableEntity,
			contains: "Please enter a valid email address.",
		},
		{
			name:     "unknown interest",
			form:     url.Values{"email": {"bob@example.com"}, "interests": {"Cooking"}},
			code:     http.StatusUnprocessableEntity,
			contains: "Please choose interests from the list.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postSubscribe(app, cookie, tc.form)
			assert.Equal(t, tc.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.contains)
		})
	}

	sub, err := subs.Get(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", sub.Name)
	assert.Equal(t, []string{"Go"}, sub.Interests)

	all, err := subs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSubscribe_RequiresCSRFToken(t *testing.T) {
	subs := newMemorySubscribers()
	app := newTestApp(t, newStore(seedContent(t)), subs)

	rec := postSubscribe(app, nil, url.Values{"email": {"eve@example.com"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	all, err := subs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubscribe_Disabled(t *testing.T) {
	app := newTestApp(t, newStore(seedContent(t)), nil)
	cookie := csrfCookie(t, app)

	rec := get(app, "/subscribe")
	assert.Contains(t, rec.Body.String(), "not accepting signups")

	rec = postSubscribe(app, cookie, url.Values{"email": {"ada@example.com"}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not accepting signups")
}

func TestSecurityHeaders(t *testing.T) {
	app := newTestApp(t, newStore(seedContent(t)), nil)

	rec := get(app, "/")
	assert.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
	assert.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderContentSecurityPolicy))
	assert.Equal(t, "public, max-age=60", rec.Header().Get(echo.HeaderCacheControl))

	rec = get(app, "/subscribe")
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))
}
