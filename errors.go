package markblog

import "errors"

var (
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
	ErrInvalidEncoding    = errors.New("invalid file encoding")
	ErrInvalidSlug        = errors.New("invalid post slug")
	ErrPostExists         = errors.New("post already exists")
	ErrMissingTitle       = errors.New("missing post title")
	ErrSubscriberExists   = errors.New("subscriber already exists")
	ErrSubscriberNotFound = errors.New("subscriber not found")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidInterest    = errors.New("invalid interest")
)
