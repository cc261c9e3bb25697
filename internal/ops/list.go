package ops

import (
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Kind     string  // optional; "" lists every kind
	Category *string // optional filter
	Color    *string // optional filter
	Platform *string // optional filter
	Query    *string // optional case-insensitive substring of title or text
	Limit    int     // default: 50, max: 500
	Offset   int     // default: 0

	IncludeText bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []ItemView `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// List retrieves items in display order with optional filters and pagination.
func List(st *store.Store, input ListInput) (*ListOutput, error) {
	kind, err := parseOptionalKind(input.Kind)
	if err != nil {
		return nil, err
	}

	var f store.Filter
	if c := cleanOptionalString(input.Category); c != nil {
		f.Category = *c
	}
	if p := cleanOptionalString(input.Platform); p != nil {
		f.Platform = *p
	}
	if q := cleanOptionalString(input.Query); q != nil {
		f.Query = *q
	}
	if c := cleanOptionalString(input.Color); c != nil {
		color, err := item.ParseColor(*c)
		if err != nil {
			return nil, errInvalid(err)
		}
		f.Color = &color
	}

	items := st.List(kind, f)
	page, start, end := paginate(len(items), input.Limit, input.Offset, DefaultListLimit, MaxListLimit)

	return &ListOutput{
		Items:      viewsOf(items[start:end], input.IncludeText),
		Pagination: page,
		Sort:       "kind_order_asc",
	}, nil
}
