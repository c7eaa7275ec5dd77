package article

import "errors"

// ErrDuplicate is returned when an article with the same URL and content
// has already been ingested.
var ErrDuplicate = errors.New("article: duplicate detected")
