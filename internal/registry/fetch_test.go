package registry

import (
	"context"
	"errors"
	"testing"
)

func TestFetchAll(t *testing.T) {
	ctx := context.Background()

	t.Run("accumulates every page", func(t *testing.T) {
		pages := [][]int{{1, 2, 3}, {4, 5, 6}, {7}}
		fetch := func(ctx context.Context, page int) ([]int, bool, error) {
			return pages[page-1], page < len(pages), nil
		}

		got, err := FetchAll(ctx, fetch, nil)
		if err != nil {
			t.Fatalf("FetchAll() error: %v", err)
		}
		if len(got) != 7 {
			t.Errorf("expected 7 items, got %d", len(got))
		}
		for i, v := range got {
			if v != i+1 {
				t.Errorf("item %d = %d, want %d", i, v, i+1)
			}
		}
	})

	t.Run("stops at first short page", func(t *testing.T) {
		calls := 0
		fetch := func(ctx context.Context, page int) ([]int, bool, error) {
			calls++
			return []int{page}, false, nil
		}

		if _, err := FetchAll(ctx, fetch, nil); err != nil {
			t.Fatalf("FetchAll() error: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected a single page request, got %d", calls)
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		fetch := func(ctx context.Context, page int) ([]int, bool, error) {
			return nil, false, nil
		}

		got, err := FetchAll(ctx, fetch, nil)
		if err != nil {
			t.Fatalf("FetchAll() error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty result, got %v", got)
		}
	})

	t.Run("applies filter per page", func(t *testing.T) {
		fetch := func(ctx context.Context, page int) ([]int, bool, error) {
			return []int{1, 2, 3, 4}, false, nil
		}

		got, err := FetchAll(ctx, fetch, func(v int) bool { return v%2 == 0 })
		if err != nil {
			t.Fatalf("FetchAll() error: %v", err)
		}
		if len(got) != 2 || got[0] != 2 || got[1] != 4 {
			t.Errorf("expected [2 4], got %v", got)
		}
	})

	t.Run("page error aborts the fetch", func(t *testing.T) {
		boom := errors.New("boom")
		fetch := func(ctx context.Context, page int) ([]int, bool, error) {
			if page == 2 {
				return nil, false, boom
			}
			return []int{page}, true, nil
		}

		_, err := FetchAll(ctx, fetch, nil)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped page error, got %v", err)
		}
	})
}
