// internal/paging/paging.go

// Package paging slices in-memory result sets for list endpoints.
package paging

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Request is a 1-based page request.
type Request struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Normalize fills defaults and clamps the page size.
func (r Request) Normalize() Request {
	if r.Page < 1 {
		r.Page = 1
	}
	switch {
	case r.PageSize <= 0:
		r.PageSize = DefaultPageSize
	case r.PageSize > MaxPageSize:
		r.PageSize = MaxPageSize
	}
	return r
}

// Page is one slice of a result set plus the totals the table footer needs.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Slice cuts the requested page out of all. A page past the end is empty but
// still reports the totals.
func Slice[T any](all []T, req Request) Page[T] {
	req = req.Normalize()
	total := len(all)
	pages := (total + req.PageSize - 1) / req.PageSize

	items := []T{}
	// Compare page indexes before multiplying so a huge page cannot overflow.
	if req.Page-1 < pages {
		start := (req.Page - 1) * req.PageSize
		end := start + req.PageSize
		if end > total {
			end = total
		}
		items = append(items, all[start:end]...)
	}

	return Page[T]{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

// FromQuery reads ?page= and ?page_size=. Malformed values fall back to defaults.
func FromQuery(r *http.Request) Request {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return Request{Page: page, PageSize: size}.Normalize()
}
