package model

import "math"

// MaxOffset bounds page offsets. Anything beyond it is past the end of every
// collection and still a valid, empty page.
const MaxOffset = math.MaxInt32

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Offset saturates at MaxOffset instead of overflowing for huge pages.
func (p Page) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	if p.Page-1 > MaxOffset/p.Limit {
		return MaxOffset
	}
	return min((p.Page-1)*p.Limit, MaxOffset)
}

// PageResult holds one page of items and the total across all pages.
type PageResult[T any] struct {
	Items []T
	Total int
}
