package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hypergopher/markblog"
	"github.com/hypergopher/markblog/internal/config"
)

//go:embed templates
var templateFS embed.FS

var pageNames = []string{"home", "blog", "post", "tags", "tag", "search", "subscribe", "404", "error"}

// Views holds one parsed template set per page, each sharing the layout and partials.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the embedded templates.
func NewViews() (*Views, error) {
	base, err := template.New("layout").Funcs(funcMap()).ParseFS(templateFS,
		"templates/layout.html",
		"templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	v := &Views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/pages/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		v.pages[name] = t
	}

	return v, nil
}

// Render executes the named page into w.
func (v *Views) Render(w io.Writer, page string, data *PageData) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"title": func(s string) string {
			return cases.Title(language.English).String(s)
		},
		"plural": func(n int, word string) string {
			if n == 1 {
				return fmt.Sprintf("%d %s", n, word)
			}
			return fmt.Sprintf("%d %ss", n, word)
		},
		"tagURL": TagURL,
		"join":   strings.Join,
	}
}

// TagURL returns the site-relative URL of a tag page.
func TagURL(tag string) string {
	return "/tags/" + url.PathEscape(tag)
}

// SubscribeForm is the state of the newsletter form.
type SubscribeForm struct {
	Name      string
	Email     string
	Interests []string
	Errors    map[string]string
}

// Checked returns true if the interest was selected.
func (f SubscribeForm) Checked(interest string) bool {
	return slices.Contains(f.Interests, interest)
}

// PageData is the data every page template is executed with.
type PageData struct {
	Site        config.SiteConfig
	Theme       config.ThemeConfig
	Social      []config.SocialLink
	Nav         []NavItem
	Year        int
	Static      bool
	Path        string
	Title       string
	Description string
	Image       string
	CSRF        string

	Posts      []*markblog.Post
	Post       *markblog.Post
	Body       template.HTML
	Tags       []markblog.TagCount
	Tag        string
	Query      string
	Searched   bool
	Paginator  markblog.Paginator
	Form       SubscribeForm
	Interests  []string
	Newsletter bool
	Flashes    []string
	Message    string
}

// PageTitle returns the document title.
func (d *PageData) PageTitle() string {
	if d.Title == "" {
		return d.Site.Name
	}
	return d.Title + " | " + d.Site.Name
}

// PageDescription returns the meta description.
func (d *PageData) PageDescription() string {
	if d.Description == "" {
		return d.Site.Description
	}
	return d.Description
}

// PageURL returns the URL of a blog index page.
func (d *PageData) PageURL(page int) string {
	switch {
	case page <= 1:
		return "/blog"
	case d.Static:
		return fmt.Sprintf("/blog/page/%d/", page)
	default:
		return fmt.Sprintf("/blog?page=%d", page)
	}
}

// SubscribeActive reports whether the subscribe page is shown.
func (d *PageData) SubscribeActive() bool {
	return d.Path == "/subscribe"
}

// basePage returns the data shared by every page at path.
func (a *App) basePage(path, title string) *PageData {
	interests := a.Config.Newsletter.Interests
	if len(interests) == 0 {
		interests = markblog.DefaultInterests
	}

	return &PageData{
		Site:       a.Config.Site,
		Theme:      a.Config.Theme,
		Social:     a.Config.Social,
		Nav:        Navigation(path),
		Year:       a.now().Year(),
		Path:       path,
		Title:      title,
		Interests:  interests,
		Newsletter: a.Subscribers != nil,
	}
}

// page returns the base page data for the current request.
func (a *App) page(c echo.Context, title string) *PageData {
	data := a.basePage(c.Request().URL.Path, title)
	data.CSRF = csrfToken(c)
	return data
}

// render writes a page as an HTML response with the given status code. The page is rendered into
// a buffer first so that a template error still produces a proper error response.
func (a *App) render(c echo.Context, code int, page string, data *PageData) error {
	var buf bytes.Buffer
	if err := a.views.Render(&buf, page, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}
	return c.HTMLBlob(code, buf.Bytes())
}
