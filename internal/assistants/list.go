package assistants

import (
	"encoding/json"
	"fmt"
)

// Item is implemented by every type that can appear in a List. Cursor returns
// the identifier used as first_id/last_id and as the "after"/"before" cursor.
type Item interface {
	Cursor() string
}

// ListObject is the value of the "object" field of every list envelope.
const ListObject = "list"

// List is one page of a cursor-paginated listing.
//
// FirstID and LastID are nil only for an empty terminal page.
type List[T Item] struct {
	Object  string  `json:"object"`
	Data    []T     `json:"data"`
	FirstID *string `json:"first_id"`
	LastID  *string `json:"last_id"`
	// HasMore is true iff more items exist beyond LastID.
	HasMore bool `json:"has_more"`
}

// NewList builds a page from items, deriving the boundary identifiers from the
// first and last element. An empty page that claims more items fails with
// ErrEmptyPage. A nil items slice encodes as an empty data array.
func NewList[T Item](items []T, hasMore bool) (*List[T], error) {
	if items == nil {
		items = []T{}
	}
	page := &List[T]{
		Object:  ListObject,
		Data:    items,
		HasMore: hasMore,
	}
	if err := page.deriveBoundaries(); err != nil {
		return nil, err
	}
	return page, nil
}

// deriveBoundaries fills FirstID/LastID that the payload did not supply.
func (l *List[T]) deriveBoundaries() error {
	if len(l.Data) == 0 {
		if l.HasMore && l.LastID == nil {
			return ErrEmptyPage
		}
		return nil
	}
	if l.FirstID == nil {
		id := l.Data[0].Cursor()
		l.FirstID = &id
	}
	if l.LastID == nil {
		id := l.Data[len(l.Data)-1].Cursor()
		l.LastID = &id
	}
	return nil
}

// NextCursor returns the "after" cursor of the following page, or false when
// this page is the last one.
func (l *List[T]) NextCursor() (string, bool) {
	if !l.HasMore || l.LastID == nil {
		return "", false
	}
	return *l.LastID, true
}

// PrevCursor returns the "before" cursor of the page preceding this one when
// walking backwards from a before-only request, or false when there is none.
func (l *List[T]) PrevCursor() (string, bool) {
	if !l.HasMore || l.FirstID == nil {
		return "", false
	}
	return *l.FirstID, true
}

// listFields mirrors List without its UnmarshalJSON. Generic functions cannot
// declare local types, so it lives at package level.
type listFields[T Item] struct {
	Object  string  `json:"object"`
	Data    []T     `json:"data"`
	FirstID *string `json:"first_id"`
	LastID  *string `json:"last_id"`
	HasMore bool    `json:"has_more"`
}

// UnmarshalJSON decodes a page and derives missing boundary identifiers.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	obj, err := parseObject("list", data)
	if err != nil {
		return err
	}
	if err := requireFields(obj, "", "data", "has_more"); err != nil {
		return err
	}
	if _, err := arrayField(obj, "", "data"); err != nil {
		return err
	}

	var wire listFields[T]
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}

	page := List[T](wire)
	if err := page.deriveBoundaries(); err != nil {
		return err
	}
	*l = page
	return nil
}
