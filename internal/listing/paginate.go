package listing

import "github.com/utafrali/storefront/pkg/pagination"

// Paginate returns one page of an already filtered list.
func Paginate[T any](items []T, params pagination.Params) pagination.Result[T] {
	return pagination.Apply(items, params)
}
