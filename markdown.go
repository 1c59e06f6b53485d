package markblog

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

const (
	// ExcerptLength is the maximum number of characters of a derived excerpt, before the ellipsis.
	ExcerptLength = 150
	// WordsPerMinute is the reading rate used by EstimateReadingTime.
	WordsPerMinute = 200
)

// ParserFunc turns the source of a markdown file into a Post.
type ParserFunc func(slug string, source []byte, now time.Time) (*Post, error)

var frontmatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

var (
	reHeading    = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+`)
	reImage      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	reLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	reFormatting = regexp.MustCompile("[*_~`]")
	reNewlines   = regexp.MustCompile(`[\r\n]+`)
)

var utf8BOM = []byte("\ufeff")

// ParsePost splits a markdown file into frontmatter and body and builds a Post from them.
// Frontmatter may be YAML (delimited by ---) or TOML (delimited by +++); a file without
// frontmatter is all body. Missing or mistyped fields fall back to their defaults, with the
// date defaulting to now. A post with no body text uses its title as the excerpt.
func ParsePost(slug string, source []byte, now time.Time) (*Post, error) {
	if !utf8.Valid(source) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, slug)
	}
	source = bytes.TrimPrefix(source, utf8BOM)

	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta, frontmatterFormats...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFrontmatter, slug, err)
	}

	content := string(body)
	post := &Post{
		Slug:          slug,
		Title:         DefaultTitle,
		Date:          now.Format(DateLayout),
		Author:        DefaultAuthor,
		Content:       content,
		FeaturedImage: DefaultFeaturedImage,
		Tags:          []string{DefaultTag},
		ReadingTime:   EstimateReadingTime(content),
	}

	if title, ok := anyToString(meta["title"]); ok {
		post.Title = title
	}

	if date, ok := anyToDate(meta["date"]); ok {
		post.Date = date
	}

	if author, ok := anyToString(meta["author"]); ok {
		post.Author = author
	}

	if image, ok := anyToString(meta["featuredImage"]); ok {
		post.FeaturedImage = image
	}

	if tags := anyToStringSlice(meta["tags"]); len(tags) > 0 {
		post.Tags = tags
	}

	if excerpt, ok := anyToString(meta["excerpt"]); ok {
		post.Excerpt = excerpt
	} else if excerpt := Excerpt(content, ExcerptLength); excerpt != "" {
		post.Excerpt = excerpt
	} else {
		post.Excerpt = post.Title
	}

	return post, nil
}

// Excerpt strips markdown syntax from content and truncates the plain text to maxLength
// characters at the last preceding word boundary, appending "...".
func Excerpt(content string, maxLength int) string {
	plain := reHeading.ReplaceAllString(content, "")
	plain = reImage.ReplaceAllString(plain, "$1")
	plain = reLink.ReplaceAllString(plain, "$1")
	plain = reFormatting.ReplaceAllString(plain, "")
	plain = reNewlines.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(plain)

	runes := []rune(plain)
	if len(runes) <= maxLength {
		return plain
	}

	cut := maxLength
	for i := maxLength; i > 0; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}

	return strings.TrimRight(string(runes[:cut]), " ") + "..."
}

// EstimateReadingTime estimates the reading time of the content.
func EstimateReadingTime(content string) string {
	// Count the number of words in the content
	words := float64(len(strings.Fields(content)))

	minutes := int(math.Ceil(words / WordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}

	return fmt.Sprintf("%d min read", minutes)
}

// GenerateETag generates an ETag for the content.
func GenerateETag(content string) string {
	hash := sha256.New()
	hash.Write([]byte(content))
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// Renderer converts post bodies to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a Renderer that uses goldmark with the following extensions:
// - GFM
// - Typographer
// - Footnote
// It also enables the following parser options:
// - AutoHeadingID
// - Attribute
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			extension.Footnote,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithAttribute(),
		),
	)

	return &Renderer{md: md}
}

// Render converts markdown content to HTML.
func (r *Renderer) Render(content string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}
