package markblog

import (
	"slices"
	"strings"
)

// filterPosts returns the posts for which keep returns true, in their original order.
func filterPosts(posts []*Post, keep func(*Post) bool) []*Post {
	filtered := make([]*Post, 0, len(posts))
	for _, post := range posts {
		if keep(post) {
			filtered = append(filtered, post)
		}
	}
	return filtered
}

// postMatches checks if a lower-cased query occurs in the title, excerpt, content or a tag of the post
func postMatches(post *Post, query string) bool {
	if strings.Contains(strings.ToLower(post.Title), query) ||
		strings.Contains(strings.ToLower(post.Excerpt), query) ||
		strings.Contains(strings.ToLower(post.Content), query) {
		return true
	}

	return slices.ContainsFunc(post.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), query)
	})
}

// countTags counts the posts per tag. Tags are ordered by count, most used first; tags with
// the same count keep the order in which they were first seen.
func countTags(posts []*Post) []TagCount {
	counts := make(map[string]int)
	var order []string
	for _, post := range posts {
		for _, tag := range post.Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(order))
	for _, name := range order {
		tags = append(tags, TagCount{Name: name, Count: counts[name]})
	}

	slices.SortStableFunc(tags, func(a, b TagCount) int {
		return b.Count - a.Count
	})

	return tags
}
