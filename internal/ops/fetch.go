package ops

import (
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/store"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID          string
	IncludeText *bool // default: true (nil means default)
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	ItemView
}

// Fetch retrieves an item by ID.
func Fetch(st *store.Store, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	it, err := st.Get(id)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{ItemView: NewItemView(it, includeTextOr(input.IncludeText, true))}, nil
}
