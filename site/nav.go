package site

import "strings"

// NavItem is a link in the site header.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// Navigation returns the header links with the item for path marked active. Blog and Tags
// stay active on their sub pages.
func Navigation(path string) []NavItem {
	items := []NavItem{
		{Label: "Home", Href: "/"},
		{Label: "Blog", Href: "/blog"},
		{Label: "Tags", Href: "/tags"},
		{Label: "Search", Href: "/search"},
	}

	for i := range items {
		items[i].Active = isActive(items[i].Href, path)
	}

	return items
}

func isActive(href, path string) bool {
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}

	switch href {
	case "/blog", "/tags":
		return path == href || strings.HasPrefix(path, href+"/")
	default:
		return path == href
	}
}
