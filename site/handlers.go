package site

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hypergopher/markblog"
)

func (a *App) handleHome(c echo.Context) error {
	return a.render(c, http.StatusOK, "home", a.homeData(a.page(c, "")))
}

func (a *App) handleBlog(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil {
		page = 1
	}
	return a.render(c, http.StatusOK, "blog", a.blogData(a.page(c, "Blog"), a.Posts.Posts(), page))
}

func (a *App) handlePost(c echo.Context) error {
	slug, err := url.PathUnescape(c.Param("slug"))
	if err != nil {
		return echo.ErrNotFound
	}

	post, ok := a.Posts.Post(slug)
	if !ok {
		return echo.ErrNotFound
	}

	etag, err := postETag(post)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", etag)
	if match := c.Request().Header.Get("If-None-Match"); match != "" && match == etag {
		return c.NoContent(http.StatusNotModified)
	}

	data, err := a.postData(a.page(c, post.Title), post)
	if err != nil {
		return err
	}
	return a.render(c, http.StatusOK, "post", data)
}

func (a *App) handleTags(c echo.Context) error {
	data := a.page(c, "Tags")
	data.Description = "Browse blog posts by tag"
	data.Tags = a.Posts.Tags()
	return a.render(c, http.StatusOK, "tags", data)
}

func (a *App) handleTag(c echo.Context) error {
	tag, err := url.PathUnescape(c.Param("tag"))
	if err != nil {
		return echo.ErrNotFound
	}

	data := a.tagData(a.page(c, tag), tag)
	if len(data.Posts) == 0 {
		return echo.ErrNotFound
	}
	return a.render(c, http.StatusOK, "tag", data)
}

func (a *App) handleSearch(c echo.Context) error {
	data := a.page(c, "Search")
	data.Description = "Search for blog posts by title, content, or tags"
	data.Query = strings.TrimSpace(c.QueryParam("q"))
	if data.Query != "" {
		data.Searched = true
		data.Posts = a.Posts.Search(data.Query)
	}
	return a.render(c, http.StatusOK, "search", data)
}

type apiError struct {
	Error string `json:"error"`
}

func (a *App) handleAPISearch(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusOK, []*markblog.Post{})
	}

	posts, err := a.searchPosts(query)
	if err != nil {
		a.logger.Error("search failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, apiError{Error: "Failed to search posts"})
	}

	return c.JSON(http.StatusOK, posts)
}

// searchPosts runs a search and turns a panic in the post source into an error.
func (a *App) searchPosts(query string) (posts []*markblog.Post, err error) {
	defer func() {
		if r := recover(); r != nil {
			posts, err = nil, fmt.Errorf("search panicked: %v", r)
		}
	}()

	posts = a.Posts.Search(query)
	if posts == nil {
		posts = []*markblog.Post{}
	}
	return posts, nil
}

func (a *App) handleSubscribeForm(c echo.Context) error {
	data := a.subscribeData(a.page(c, "Subscribe"))
	data.Flashes = popFlashes(c)
	return a.render(c, http.StatusOK, "subscribe", data)
}

func (a *App) handleSubscribe(c echo.Context) error {
	data := a.subscribeData(a.page(c, "Subscribe"))
	if a.Subscribers == nil {
		return a.render(c, http.StatusServiceUnavailable, "subscribe", data)
	}

	params, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	data.Form = SubscribeForm{
		Name:      params.Get("name"),
		Email:     params.Get("email"),
		Interests: params["interests"],
		Errors:    map[string]string{},
	}

	sub, err := markblog.NewSubscriber(data.Form.Name, data.Form.Email, data.Form.Interests, data.Interests)
	switch {
	case errors.Is(err, markblog.ErrInvalidEmail):
		data.Form.Errors["email"] = "Please enter a valid email address."
		return a.render(c, http.StatusUnprocessableEntity, "subscribe", data)
	case errors.Is(err, markblog.ErrInvalidInterest):
		data.Form.Errors["interests"] = "Please choose interests from the list."
		return a.render(c, http.StatusUnprocessableEntity, "subscribe", data)
	case err != nil:
		return err
	}

	err = a.Subscribers.Add(c.Request().Context(), sub)
	if errors.Is(err, markblog.ErrSubscriberExists) {
		data.Message = sub.Email + " is already subscribed."
		return a.render(c, http.StatusOK, "subscribe", data)
	}
	if err != nil {
		return err
	}

	a.logger.Info("new subscriber", slog.String("email", sub.Email))

	name := sub.Name
	if name == "" {
		name = "friend"
	}
	if err := addFlash(c, fmt.Sprintf("Thanks for subscribing, %s! Watch %s for the next issue.", name, sub.Email)); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/subscribe")
}

func (a *App) handleFeed(c echo.Context) error {
	var buf bytes.Buffer
	if err := WriteFeed(&buf, a.Config.Site, a.Posts.Posts()); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", buf.Bytes())
}

func (a *App) handleSitemap(c echo.Context) error {
	var buf bytes.Buffer
	if err := WriteSitemap(&buf, a.Config.Site, a.Posts.Posts(), a.Posts.Tags()); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, buf.Bytes())
}

func (a *App) handleThemeCSS(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(ThemeCSS(a.Config.Theme)))
}

func (a *App) homeData(data *PageData) *PageData {
	posts := a.Posts.Posts()
	if len(posts) > HomePostCount {
		posts = posts[:HomePostCount]
	}
	data.Posts = posts

	tags := a.Posts.Tags()
	if len(tags) > HomeTagCount {
		tags = tags[:HomeTagCount]
	}
	data.Tags = tags
	return data
}

func (a *App) blogData(data *PageData, posts []*markblog.Post, page int) *PageData {
	data.Description = "Read the latest articles on web development and technology"
	data.Paginator = markblog.NewPaginator(posts, page, PageSize)
	return data
}

func (a *App) postData(data *PageData, post *markblog.Post) (*PageData, error) {
	body, err := a.renderer.Render(post.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to render post %s: %w", post.Slug, err)
	}

	data.Post = post
	data.Body = template.HTML(body)
	data.Description = post.Excerpt
	data.Image = post.FeaturedImage
	return data, nil
}

func (a *App) tagData(data *PageData, tag string) *PageData {
	data.Tag = tag
	data.Description = fmt.Sprintf("Blog posts tagged with %q", tag)
	data.Posts = a.Posts.PostsByTag(tag)
	return data
}

func (a *App) subscribeData(data *PageData) *PageData {
	data.Description = "Get the latest blog posts and updates delivered directly to your inbox"
	data.Form = SubscribeForm{Errors: map[string]string{}}
	return data
}

// postETag returns the quoted entity tag of a post.
func postETag(post *markblog.Post) (string, error) {
	raw, err := json.Marshal(post)
	if err != nil {
		return "", fmt.Errorf("failed to encode post %s: %w", post.Slug, err)
	}
	return `"` + markblog.GenerateETag(string(raw)) + `"`, nil
}
