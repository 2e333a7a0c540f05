package dashboard

import "math"

// MaxPage returns the last zero-based page index for total records split into
// pages of pageSize. An empty collection still has page 0.
func MaxPage(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	pages := (total + int64(pageSize) - 1) / int64(pageSize)
	return int(pages - 1)
}

// HasNext reports whether a page after page exists.
func HasNext(page int, total int64, pageSize int) bool {
	return page < MaxPage(total, pageSize)
}

// HasPrev reports whether a page before page exists.
func HasPrev(page int) bool {
	return page > 0
}

// Window is the (offset, limit) slice of the server-side collection.
type Window struct {
	Offset int
	Limit  int
}

// PageWindow maps a page number onto a window.
func PageWindow(page, pageSize int) Window {
	page = ClampPage(page, pageSize)
	return Window{Offset: page * pageSize, Limit: pageSize}
}

// ClampPage bounds page to the pages whose offset, and whose one-based
// number, fit in an int.
func ClampPage(page, pageSize int) int {
	if page < 0 {
		return 0
	}
	limit := math.MaxInt - 1
	if pageSize > 0 {
		limit = math.MaxInt/pageSize - 1
	}
	return min(page, limit)
}
