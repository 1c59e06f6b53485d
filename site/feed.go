package site

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/hypergopher/markblog"
	"github.com/hypergopher/markblog/internal/config"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// WriteFeed writes the RSS 2.0 feed of posts to w. Placeholder posts are left out.
func WriteFeed(w io.Writer, cfg config.SiteConfig, posts []*markblog.Post) error {
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		if p.IsPlaceholder() {
			continue
		}

		pubDate := ""
		if t := p.Published(); !t.IsZero() {
			pubDate = t.Format(time.RFC1123Z)
		}

		postURL := buildURL(cfg.URL, "blog", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Excerpt,
			Author:      p.Author,
			Categories:  p.Tags,
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}

	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        buildURL(cfg.URL),
			Description: cfg.Description,
			Items:       items,
		},
	}

	return writeXML(w, feed)
}

// WriteSitemap writes the sitemap of the home, blog and tag pages and of every post to w.
func WriteSitemap(w io.Writer, cfg config.SiteConfig, posts []*markblog.Post, tags []markblog.TagCount) error {
	urls := []sitemapURL{
		{Loc: buildURL(cfg.URL)},
		{Loc: buildURL(cfg.URL, "blog")},
		{Loc: buildURL(cfg.URL, "tags")},
	}

	for _, tag := range tags {
		urls = append(urls, sitemapURL{Loc: buildURL(cfg.URL, "tags", tag.Name)})
	}

	for _, p := range posts {
		if p.IsPlaceholder() {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     buildURL(cfg.URL, "blog", p.Slug),
			LastMod: p.Date,
		})
	}

	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	return writeXML(w, sitemap)
}

func writeXML(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode xml: %w", err)
	}
	return nil
}

// buildURL joins the site URL and the escaped path segments.
func buildURL(base string, segments ...string) string {
	base = strings.TrimRight(base, "/")
	if len(segments) == 0 {
		return base + "/"
	}

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(escaped, "/")
}
