package registry

import (
	"context"
	"fmt"
)

// PageFunc fetches one 1-based page of records and reports whether more pages
// remain. Implementations terminate at the first short or empty page.
type PageFunc[T any] func(ctx context.Context, page int) (items []T, hasMore bool, err error)

// FetchAll enumerates a full collection by requesting successive pages until
// the source signals the end. An optional filter is applied per page before
// accumulation; it trims memory and downstream work but never changes which
// records the source considers part of the collection.
//
// A failing page aborts the fetch; retries happen per request inside the
// [Client], not here.
func FetchAll[T any](ctx context.Context, fetch PageFunc[T], filter func(T) bool) ([]T, error) {
	var all []T

	for page := 1; ; page++ {
		items, hasMore, err := fetch(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		for _, item := range items {
			if filter == nil || filter(item) {
				all = append(all, item)
			}
		}

		if !hasMore {
			return all, nil
		}
	}
}
