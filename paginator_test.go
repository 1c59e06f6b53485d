package markblog_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hypergopher/markblog"
)

func makePosts(n int) []*markblog.Post {
	posts := make([]*markblog.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, &markblog.Post{Slug: fmt.Sprintf("post-%d", i)})
	}
	return posts
}

func TestNewPaginator(t *testing.T) {
	cases := []struct {
		name        string
		total       int
		page        int
		pageSize    int
		currentPage int
		totalPages  int
		pagePosts   int
		hasNext     bool
		hasPrev     bool
		firstSlug   string
	}{
		{name: "no posts", total: 0, page: 1, pageSize: 9, currentPage: 1, totalPages: 1, pagePosts: 0},
		{name: "single page", total: 5, page: 1, pageSize: 9, currentPage: 1, totalPages: 1, pagePosts: 5, firstSlug: "post-0"},
		{name: "first of three", total: 20, page: 1, pageSize: 9, currentPage: 1, totalPages: 3, pagePosts: 9, hasNext: true, firstSlug: "post-0"},
		{name: "middle page", total: 20, page: 2, pageSize: 9, currentPage: 2, totalPages: 3, pagePosts: 9, hasNext: true, hasPrev: true, firstSlug: "post-9"},
		{name: "last partial page", total: 20, page: 3, pageSize: 9, currentPage: 3, totalPages: 3, pagePosts: 2, hasPrev: true, firstSlug: "post-18"},
		{name: "page past the end", total: 20, page: 7, pageSize: 9, currentPage: 3, totalPages: 3, pagePosts: 2, hasPrev: true, firstSlug: "post-18"},
		{name: "page below one", total: 20, page: -2, pageSize: 9, currentPage: 1, totalPages: 3, pagePosts: 9, hasNext: true, firstSlug: "post-0"},
		{name: "default page size", total: 10, page: 2, pageSize: 0, currentPage: 2, totalPages: 2, pagePosts: 1, hasPrev: true, firstSlug: "post-9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := markblog.NewPaginator(makePosts(tc.total), tc.page, tc.pageSize)

			assert.Equal(t, tc.currentPage, p.CurrentPage)
			assert.Equal(t, tc.totalPages, p.TotalPages)
			assert.Equal(t, tc.total, p.TotalPosts)
			assert.Len(t, p.Posts, tc.pagePosts)
			assert.Equal(t, tc.pagePosts > 0, p.HasPosts)
			assert.Equal(t, tc.hasNext, p.HasNext)
			assert.Equal(t, tc.hasPrev, p.HasPrev)
			if tc.firstSlug != "" {
				assert.Equal(t, tc.firstSlug, p.Posts[0].Slug)
			}
			if p.HasNext {
				assert.Equal(t, p.CurrentPage+1, p.NextPage)
			}
			if p.HasPrev {
				assert.Equal(t, p.CurrentPage-1, p.PrevPage)
			}
		})
	}
}
