package site

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/hypergopher/markblog"
)

// ErrUnsafeOutputDir is returned when removing the output directory would delete the
// working directory or the posts.
var ErrUnsafeOutputDir = errors.New("refusing to use output directory")

// Builder exports the site as static files.
type Builder struct {
	app    *App
	logger *slog.Logger
}

// NewBuilder creates a Builder rendering the pages of app.
func NewBuilder(app *App) *Builder {
	return &Builder{
		app:    app,
		logger: app.logger,
	}
}

// Build recreates outDir and writes every page, the feed, the sitemap, the theme stylesheet,
// and the search index into it.
func (b *Builder) Build(outDir string) error {
	if err := b.checkOutputDir(outDir); err != nil {
		return err
	}
	clean := filepath.Clean(outDir)

	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("failed to remove output directory %s: %w", clean, err)
	}
	if err := os.MkdirAll(clean, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", clean, err)
	}

	a := b.app
	posts := a.Posts.Posts()
	tags := a.Posts.Tags()

	if err := b.page(clean, "index.html", "home", a.homeData(b.base("/", ""))); err != nil {
		return err
	}

	first := a.blogData(b.base("/blog", "Blog"), posts, 1)
	for page := 1; page <= first.Paginator.TotalPages; page++ {
		name := filepath.Join("blog", "page", strconv.Itoa(page), "index.html")
		if page == 1 {
			name = filepath.Join("blog", "index.html")
		}
		if err := b.page(clean, name, "blog", a.blogData(b.base("/blog", "Blog"), posts, page)); err != nil {
			return err
		}
	}

	written := 0
	for _, post := range posts {
		if post.IsPlaceholder() || !markblog.IsValidSlug(post.Slug) {
			continue
		}
		data, err := a.postData(b.base(post.URL(), post.Title), post)
		if err != nil {
			return err
		}
		if err := b.page(clean, filepath.Join("blog", post.Slug, "index.html"), "post", data); err != nil {
			return err
		}
		written++
	}

	tagsData := b.base("/tags", "Tags")
	tagsData.Tags = tags
	if err := b.page(clean, filepath.Join("tags", "index.html"), "tags", tagsData); err != nil {
		return err
	}

	for _, tag := range tags {
		if !markblog.IsValidSlug(tag.Name) {
			b.logger.Warn("skipping tag page", slog.String("tag", tag.Name))
			continue
		}
		data := a.tagData(b.base("/tags/"+tag.Name, tag.Name), tag.Name)
		if err := b.page(clean, filepath.Join("tags", tag.Name, "index.html"), "tag", data); err != nil {
			return err
		}
	}

	if err := b.page(clean, filepath.Join("search", "index.html"), "search", b.base("/search", "Search")); err != nil {
		return err
	}

	if err := b.page(clean, filepath.Join("subscribe", "index.html"), "subscribe", a.subscribeData(b.base("/subscribe", "Subscribe"))); err != nil {
		return err
	}

	if err := b.page(clean, "404.html", "404", b.base("/404", "Page Not Found")); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := WriteFeed(&buf, a.Config.Site, posts); err != nil {
		return err
	}
	if err := writeFile(clean, "feed.xml", buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := WriteSitemap(&buf, a.Config.Site, posts, tags); err != nil {
		return err
	}
	if err := writeFile(clean, "sitemap.xml", buf.Bytes()); err != nil {
		return err
	}

	if err := writeFile(clean, "theme.css", []byte(ThemeCSS(a.Config.Theme))); err != nil {
		return err
	}

	index, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("failed to encode search index: %w", err)
	}
	if err := writeFile(clean, "search.json", index); err != nil {
		return err
	}

	b.logger.Info("site built",
		slog.String("out", clean),
		slog.Int("posts", written),
		slog.Int("tags", len(tags)))
	return nil
}

func (b *Builder) base(path, title string) *PageData {
	data := b.app.basePage(path, title)
	data.Static = true
	return data
}

func (b *Builder) page(outDir, name, page string, data *PageData) error {
	var buf bytes.Buffer
	if err := b.app.views.Render(&buf, page, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return writeFile(outDir, name, buf.Bytes())
}

func writeFile(outDir, name string, data []byte) error {
	path := filepath.Join(outDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	// atomic.WriteFile leaves new files with the temp file mode.
	if err := os.Chmod(path, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	return nil
}

// checkOutputDir refuses an output directory that is the working directory or one of its
// ancestors, or that overlaps the content directory.
func (b *Builder) checkOutputDir(outDir string) error {
	if outDir == "" {
		return fmt.Errorf("%w %q", ErrUnsafeOutputDir, outDir)
	}

	out, err := resolveDir(outDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory %s: %w", outDir, err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if wd, err = resolveDir(wd); err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if within(out, wd) {
		return fmt.Errorf("%w %q: contains the working directory", ErrUnsafeOutputDir, outDir)
	}

	if contentDir := b.app.Config.Content.Dir; contentDir != "" {
		content, err := resolveDir(contentDir)
		if err != nil {
			return fmt.Errorf("failed to resolve content directory %s: %w", contentDir, err)
		}
		if within(out, content) || within(content, out) {
			return fmt.Errorf("%w %q: overlaps the content directory", ErrUnsafeOutputDir, outDir)
		}
	}
	return nil
}

// resolveDir returns the absolute form of dir with symlinks evaluated as far as the path exists.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	var missing []string
	for existing := abs; ; existing = filepath.Dir(existing) {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		missing = append([]string{filepath.Base(existing)}, missing...)
	}
}

// within reports whether child is parent or sits below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
