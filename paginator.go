package markblog

// Paginator holds one page of posts and the information needed to link to its neighbours.
type Paginator struct {
	TotalPages  int
	CurrentPage int
	NextPage    int
	PrevPage    int
	PageSize    int
	HasNext     bool
	HasPrev     bool
	HasPosts    bool
	TotalPosts  int
	Posts       []*Post
}

// NewPaginator returns the page with the given number. Page numbers below 1 select the first
// page and numbers past the end select the last one.
func NewPaginator(posts []*Post, currentPage, pageSize int) Paginator {
	if pageSize < 1 {
		pageSize = 9
	}

	total := len(posts)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if currentPage < 1 {
		currentPage = 1
	}

	if currentPage > totalPages {
		currentPage = totalPages
	}

	nextPage := currentPage + 1
	prevPage := currentPage - 1

	if nextPage > totalPages {
		nextPage = totalPages
	}

	if prevPage < 1 {
		prevPage = 1
	}

	start := (currentPage - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	page := posts[start:end]

	return Paginator{
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		NextPage:    nextPage,
		PrevPage:    prevPage,
		PageSize:    pageSize,
		HasNext:     currentPage < totalPages,
		HasPrev:     currentPage > 1,
		HasPosts:    len(page) > 0,
		TotalPosts:  total,
		Posts:       page,
	}
}
