package markblog

import (
	"fmt"
	"slices"
	"time"
)

const (
	DefaultTitle         = "Untitled Post"
	DefaultAuthor        = "Anonymous"
	DefaultTag           = "uncategorized"
	DefaultFeaturedImage = "/placeholder.svg?width=1200&height=630&text=Blog+Post"

	// DateLayout is the layout of Post.Date.
	DateLayout = "2006-01-02"

	errorPostExcerpt = "There was an error loading this post. Please check the file format and try again."
	errorPostImage   = "/placeholder.svg?width=1200&height=630&text=Error"
	ErrorTag         = "error"
)

// Post represents a markdown post loaded from the content directory.
type Post struct {
	Slug          string   `json:"slug"`          // Slug is the file name without its extension
	Title         string   `json:"title"`         // Title is the title of the post
	Date          string   `json:"date"`          // Date is the publication date in the format YYYY-MM-DD
	Author        string   `json:"author"`        // Author is the display name of the author
	Excerpt       string   `json:"excerpt"`       // Excerpt is a short plain-text summary
	Content       string   `json:"content"`       // Content is the raw markdown body, without frontmatter
	FeaturedImage string   `json:"featuredImage"` // FeaturedImage is the URL of the featured image
	Tags          []string `json:"tags"`          // Tags is the ordered list of tags
	ReadingTime   string   `json:"readingTime"`   // ReadingTime is the estimated reading time, e.g. "3 min read"
}

// TagCount is the number of posts carrying a tag.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PlaceholderPost returns the stand-in listed for a post whose file could not be loaded.
func PlaceholderPost(slug string, now time.Time) *Post {
	return &Post{
		Slug:          slug,
		Title:         "Error Loading Post",
		Date:          now.Format(DateLayout),
		Author:        "System",
		Excerpt:       errorPostExcerpt,
		Content:       "# Error Loading Post\n\n" + errorPostExcerpt,
		FeaturedImage: errorPostImage,
		Tags:          []string{ErrorTag},
		ReadingTime:   "1 min read",
	}
}

// URL returns the site-relative URL of the post.
func (p *Post) URL() string {
	return fmt.Sprintf("/blog/%s", p.Slug)
}

// HasTag returns true if the post carries exactly the given tag.
func (p *Post) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

// IsPlaceholder returns true if the post stands in for a file that failed to load.
func (p *Post) IsPlaceholder() bool {
	return p.Title == "Error Loading Post" && len(p.Tags) == 1 && p.Tags[0] == ErrorTag
}

// Published returns the parsed publication date, or the zero time if Date does not parse.
func (p *Post) Published() time.Time {
	t, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// PublishedDate returns the published date in the format January 2, 2006
func (p *Post) PublishedDate() string {
	t := p.Published()
	if t.IsZero() {
		return p.Date
	}
	return t.Format("January 2, 2006")
}
