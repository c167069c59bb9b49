package pagination

import (
	"net/http"
	"strconv"
)

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns the defaults used when the client sends nothing.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: 20}
}

// Offset is the index of the first element on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest extracts page and per_page from the query string. Invalid or
// out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}

	return p
}

// Result is one page of an already materialized list.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Apply slices items down to the requested page. A page past the end yields
// an empty, non-nil Data slice.
func Apply[T any](items []T, params Params) Result[T] {
	if params.PerPage <= 0 {
		params.PerPage = DefaultParams().PerPage
	}
	if params.Page <= 0 {
		params.Page = 1
	}

	total := len(items)
	totalPages := total / params.PerPage
	if total%params.PerPage > 0 {
		totalPages++
	}

	start := min(params.Offset(), total)
	end := min(start+params.PerPage, total)

	page := make([]T, end-start)
	copy(page, items[start:end])

	return Result[T]{
		Data:       page,
		TotalCount: total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}
