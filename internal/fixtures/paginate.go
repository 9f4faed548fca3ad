package fixtures

import (
	"cmp"
	"slices"

	"github.com/florianilch/stepwise/internal/assistants"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// paginate orders items and cuts the page selected by params.
//
// With "after" the page starts right behind the cursor and has_more reports
// items beyond the page end. With only "before" the page ends right ahead of
// the cursor and has_more reports items ahead of the page start, so callers
// can walk backwards.
func paginate[T assistants.Item](items []T, createdAt func(T) int64, params assistants.ListParams) (*assistants.List[T], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	limit := defaultLimit
	if params.Limit != nil {
		limit = min(*params.Limit, maxLimit)
	}
	order := assistants.OrderDesc
	if params.Order != nil {
		order = *params.Order
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		c := cmp.Or(
			cmp.Compare(createdAt(a), createdAt(b)),
			cmp.Compare(a.Cursor(), b.Cursor()),
		)
		if order == assistants.OrderDesc {
			return -c
		}
		return c
	})

	start, end := 0, len(sorted)
	if params.After != nil {
		i, err := cursorIndex(sorted, "after", *params.After)
		if err != nil {
			return nil, err
		}
		start = i + 1
	}
	if params.Before != nil {
		i, err := cursorIndex(sorted, "before", *params.Before)
		if err != nil {
			return nil, err
		}
		end = i
	}
	if start > end {
		start = end
	}

	pageStart, pageEnd := start, min(end, start+limit)
	if params.Before != nil && params.After == nil {
		pageStart, pageEnd = max(start, end-limit), end
	}
	hasMore := pageEnd < end
	if params.Before != nil && params.After == nil {
		hasMore = pageStart > start
	}

	// data is always an array on the wire, even when empty.
	page := make([]T, 0, pageEnd-pageStart)
	page = append(page, sorted[pageStart:pageEnd]...)
	return assistants.NewList(page, hasMore)
}

func cursorIndex[T assistants.Item](items []T, param, cursor string) (int, error) {
	i := slices.IndexFunc(items, func(item T) bool { return item.Cursor() == cursor })
	if i < 0 {
		return 0, &CursorError{Param: param, Cursor: cursor}
	}
	return i, nil
}
