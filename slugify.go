package markblog

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// SlugifyTitle returns the URL-friendly file stem for a post title, e.g.
// "Hello, World!" becomes "hello-world".
func SlugifyTitle(title string) string {
	return slug.Make(strings.TrimSpace(title))
}

// SlugifyTitleWithDate prefixes the slugified title with the date in the format 2006-01-02.
func SlugifyTitleWithDate(title string, date time.Time) string {
	s := SlugifyTitle(title)
	if s == "" {
		return ""
	}
	return date.Format(DateLayout) + "-" + s
}
