// Package utils holds small parsing and paging helpers shared by the HTTP
// layer.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ParseID parses a positive numeric identifier. Zero, negatives and
// non-numeric input report false.
func ParseID(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// Page is a resolved page request.
type Page struct {
	Number int
	Size   int
}

// ClampPage reads page and page_size query values, defaulting to page 1 of
// def items and capping the size at max.
func ClampPage(page, size string, def, max int) Page {
	p := Page{
		Number: AtoiDefault(page, 1),
		Size:   AtoiDefault(size, def),
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 1
	}
	if max > 0 && p.Size > max {
		p.Size = max
	}
	return p
}

// Offset returns the number of rows preceding the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// TotalPages returns how many pages of size hold total items.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
