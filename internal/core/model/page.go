package model

import "time"

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Sanitize replaces non-positive values with the defaults and caps the limit
// at maxLimit when maxLimit > 0.
func (p Page) Sanitize(defaultLimit, maxLimit int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPageMeta builds pagination metadata. TotalPages rounds up.
func NewPageMeta(total int64, p Page) PageMeta {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PageMeta{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// PageResult is a page of items together with its metadata.
type PageResult[T any] struct {
	Items []T      `json:"items"`
	Meta  PageMeta `json:"meta"`
}

// DateRange bounds a query by timestamp. Start is inclusive, End is
// exclusive. A nil bound is not applied.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}
