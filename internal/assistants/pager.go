package assistants

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
)

// Order is the sort order of a listing by created_at.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ListParams are the cursor parameters shared by all list endpoints.
// Nil fields are omitted so the service defaults apply.
type ListParams struct {
	After  *string `json:"after,omitempty"`
	Before *string `json:"before,omitempty"`
	Limit  *int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Order  *Order  `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// Validate checks limit and order ranges. Failures are *ParamError naming the
// first offending parameter.
func (p ListParams) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("invalid list parameters: %w", err)
	}
	fe := fieldErrs[0]
	return &ParamError{Param: fe.Field(), Err: errors.New(describeRule(fe))}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}

// Query encodes the parameters as form-style query values.
func (p ListParams) Query() (url.Values, error) {
	query := url.Values{}

	add := func(name string, value any) error {
		fragment, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
		if err != nil {
			return fmt.Errorf("style query parameter %s: %w", name, err)
		}
		parsed, err := url.ParseQuery(fragment)
		if err != nil {
			return fmt.Errorf("parse query parameter %s: %w", name, err)
		}
		for key, values := range parsed {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		return nil
	}

	if p.After != nil {
		if err := add("after", *p.After); err != nil {
			return nil, err
		}
	}
	if p.Before != nil {
		if err := add("before", *p.Before); err != nil {
			return nil, err
		}
	}
	if p.Limit != nil {
		if err := add("limit", *p.Limit); err != nil {
			return nil, err
		}
	}
	if p.Order != nil {
		if err := add("order", string(*p.Order)); err != nil {
			return nil, err
		}
	}

	return query, nil
}

// ParseListParams binds list parameters from query values and validates them.
func ParseListParams(query url.Values) (ListParams, error) {
	var params ListParams

	if err := runtime.BindQueryParameter("form", true, false, "after", query, &params.After); err != nil {
		return ListParams{}, &ParamError{Param: "after", Err: err}
	}
	if err := runtime.BindQueryParameter("form", true, false, "before", query, &params.Before); err != nil {
		return ListParams{}, &ParamError{Param: "before", Err: err}
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		return ListParams{}, &ParamError{Param: "limit", Err: err}
	}
	if err := runtime.BindQueryParameter("form", true, false, "order", query, &params.Order); err != nil {
		return ListParams{}, &ParamError{Param: "order", Err: err}
	}

	if err := params.Validate(); err != nil {
		return ListParams{}, err
	}
	return params, nil
}

// PageFetcher retrieves one page for the given parameters.
type PageFetcher[T Item] func(ctx context.Context, params ListParams) (*List[T], error)

// Pages walks a listing starting at params. Each following request reuses
// params with After set to the previous page's last_id. A request with only
// Before set walks backwards instead: each following request sets Before to
// the previous page's first_id, so pages arrive in reverse while items within
// a page keep listing order. Iteration ends after the first page with
// has_more=false, on the first error, or when ctx is done.
func Pages[T Item](ctx context.Context, fetch PageFetcher[T], params ListParams) iter.Seq2[*List[T], error] {
	backward := params.Before != nil && params.After == nil

	return func(yield func(*List[T], error) bool) {
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, err := fetch(ctx, params)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if !page.HasMore {
				return
			}

			next, previous := page.NextCursor, params.After
			if backward {
				next, previous = page.PrevCursor, params.Before
			}
			cursor, ok := next()
			if !ok {
				yield(nil, ErrEmptyPage)
				return
			}
			if previous != nil && *previous == cursor {
				yield(nil, fmt.Errorf("pagination cursor %q did not advance", cursor))
				return
			}

			if backward {
				params.Before = &cursor
			} else {
				params.After = &cursor
			}
		}
	}
}

// All flattens Pages into a sequence of items.
func All[T Item](ctx context.Context, fetch PageFetcher[T], params ListParams) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for page, err := range Pages(ctx, fetch, params) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Data {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}
