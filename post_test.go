package markblog_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergopher/markblog"
)

func TestPost_Methods(t *testing.T) {
	post := &markblog.Post{Slug: "hello", Date: "2024-03-05", Tags: []string{"Go", "web"}}

	assert.Equal(t, "/blog/hello", post.URL())
	assert.True(t, post.HasTag("Go"))
	assert.False(t, post.HasTag("go"))
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), post.Published())
	assert.Equal(t, "March 5, 2024", post.PublishedDate())
	assert.False(t, post.IsPlaceholder())

	broken := &markblog.Post{Date: "someday"}
	assert.True(t, broken.Published().IsZero())
	assert.Equal(t, "someday", broken.PublishedDate())
}

func TestPlaceholderPost(t *testing.T) {
	post := markblog.PlaceholderPost("broken", testNow)

	assert.True(t, post.IsPlaceholder())
	assert.Equal(t, "broken", post.Slug)
	assert.Equal(t, "Error Loading Post", post.Title)
	assert.Equal(t, "2024-06-15", post.Date)
	assert.Equal(t, "System", post.Author)
	assert.Equal(t, []string{markblog.ErrorTag}, post.Tags)
	assert.Equal(t, "1 min read", post.ReadingTime)
	assert.Contains(t, post.Content, "# Error Loading Post")
	assert.Contains(t, post.FeaturedImage, "text=Error")
}

func TestPost_JSON(t *testing.T) {
	post := markblog.PlaceholderPost("broken", testNow)

	data, err := json.Marshal(post)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"slug", "title", "date", "author", "excerpt", "content", "featuredImage", "tags", "readingTime"} {
		assert.Contains(t, fields, key)
	}
}
