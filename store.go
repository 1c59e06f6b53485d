package markblog

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"
)

// Store answers read-only queries over the markdown posts of a content directory.
// Every query reads the directory and parses the files again; nothing is cached between calls,
// so a Store is safe for concurrent use.
type Store struct {
	ext    string
	fs     FileSystem
	logger *slog.Logger
	now    func() time.Time
	parse  ParserFunc
}

// Options is a struct for configuring a new Store.
type Options struct {
	ContentDir string           // ContentDir is the directory holding one markdown file per post. Default is "content".
	Extension  string           // Extension is the file extension of post files. Default is ".md".
	FileSystem FileSystem       // FileSystem overrides the local file system rooted at ContentDir.
	Logger     *slog.Logger     // Logger is the logger used by the Store. Default is a text logger to stderr.
	Now        func() time.Time // Now is the clock used for date defaults. Default is time.Now.
	Parser     ParserFunc       // Parser is the function used to parse post files. Default is ParsePost.
}

// NewStore creates a new Store with the provided options.
func NewStore(opts Options) *Store {
	if opts.ContentDir == "" {
		opts.ContentDir = "content"
	}

	if opts.Extension == "" {
		opts.Extension = ".md"
	}

	if !strings.HasPrefix(opts.Extension, ".") {
		opts.Extension = "." + opts.Extension
	}

	if opts.FileSystem == nil {
		opts.FileSystem = NewLocalFileSystem(opts.ContentDir)
	}

	if opts.Logger == nil {
		opts.Logger = DefaultLogger()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Parser == nil {
		opts.Parser = ParsePost
	}

	return &Store{
		ext:    opts.Extension,
		fs:     opts.FileSystem,
		logger: opts.Logger,
		now:    opts.Now,
		parse:  opts.Parser,
	}
}

// DefaultLogger returns the text logger used when no logger is configured.
func DefaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		}))
}

// Posts returns every post of the content directory, most recent first.
// A missing content directory is created and yields no posts. A file that cannot be read or
// parsed is listed as a placeholder post so that one broken file does not hide the others.
func (s *Store) Posts() (posts []*Post) {
	defer s.recoverQuery("list posts", func() { posts = []*Post{} })

	posts, err := s.loadPosts()
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return []*Post{}
	}

	return posts
}

// Post returns the post stored in <slug><ext>. It reports false if the file does not exist or
// cannot be parsed.
func (s *Store) Post(slug string) (post *Post, ok bool) {
	defer s.recoverQuery("get post", func() { post, ok = nil, false })

	if !IsValidSlug(slug) {
		return nil, false
	}

	name := slug + s.ext
	source, err := s.fs.Read(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error("failed to read post",
				slog.String("file", name),
				slog.String("error", err.Error()))
		}
		return nil, false
	}

	post, err = s.parse(slug, source, s.now())
	if err != nil {
		s.logger.Error("failed to parse post",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return nil, false
	}

	return post, true
}

// PostsByTag returns the posts carrying exactly the given tag, most recent first.
func (s *Store) PostsByTag(tag string) (posts []*Post) {
	defer s.recoverQuery("list posts by tag", func() { posts = []*Post{} })

	return filterPosts(s.Posts(), func(post *Post) bool {
		return post.HasTag(tag)
	})
}

// Search returns the posts whose title, excerpt, content, or one of whose tags contains the
// query, ignoring case. An empty query returns every post.
func (s *Store) Search(query string) (posts []*Post) {
	defer s.recoverQuery("search posts", func() { posts = []*Post{} })

	all := s.Posts()
	if query == "" {
		return all
	}

	return filterPosts(all, func(post *Post) bool {
		return postMatches(post, strings.ToLower(query))
	})
}

// Tags returns every tag with the number of posts carrying it, most used first.
func (s *Store) Tags() (tags []TagCount) {
	defer s.recoverQuery("count tags", func() { tags = []TagCount{} })

	return countTags(s.Posts())
}

// Slugs returns the slugs of all posts, most recent first.
func (s *Store) Slugs() []string {
	posts := s.Posts()
	slugs := make([]string, 0, len(posts))
	for _, post := range posts {
		slugs = append(slugs, post.Slug)
	}
	return slugs
}

func (s *Store) loadPosts() ([]*Post, error) {
	created, err := s.fs.Ensure()
	if err != nil {
		return nil, fmt.Errorf("failed to ensure content directory: %w", err)
	}

	if created {
		s.logger.Warn("content directory does not exist, created it")
		return []*Post{}, nil
	}

	names, err := s.fs.List()
	if err != nil {
		return nil, fmt.Errorf("failed to read content directory: %w", err)
	}

	now := s.now()
	posts := make([]*Post, 0, len(names))
	for _, name := range names {
		slug, ok := strings.CutSuffix(name, s.ext)
		if !ok || slug == "" {
			continue
		}

		posts = append(posts, s.loadPost(name, slug, now))
	}

	if len(posts) == 0 {
		s.logger.Warn("no markdown files found in content directory")
		return posts, nil
	}

	sortPosts(posts)
	return posts, nil
}

func (s *Store) loadPost(name, slug string, now time.Time) (post *Post) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while loading post, listing placeholder",
				slog.String("file", name),
				slog.String("error", fmt.Sprintf("%v", r)))
			post = PlaceholderPost(slug, now)
		}
	}()

	source, err := s.fs.Read(name)
	if err == nil {
		if post, err = s.parse(slug, source, now); err == nil {
			return post
		}
	}

	s.logger.Error("failed to load post, listing placeholder",
		slog.String("file", name),
		slog.String("error", err.Error()))
	return PlaceholderPost(slug, now)
}

func (s *Store) recoverQuery(op string, reset func()) {
	if r := recover(); r != nil {
		s.logger.Error("panic while querying posts",
			slog.String("op", op),
			slog.String("error", fmt.Sprintf("%v", r)))
		reset()
	}
}

// IsValidSlug returns true if the slug names a file directly inside the content directory.
func IsValidSlug(slug string) bool {
	if strings.TrimSpace(slug) == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`+"\x00")
}

// sortPosts sorts the posts by date, most recent first. Posts sharing a date keep their order.
func sortPosts(posts []*Post) {
	slices.SortStableFunc(posts, func(a, b *Post) int {
		return compareTime(b.Published(), a.Published())
	})
}

// compareTime compares two time.Time values
func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
