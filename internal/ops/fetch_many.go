package ops

import (
	"fmt"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/store"
)

// FetchManyInput contains parameters for the FetchMany operation.
type FetchManyInput struct {
	IDs         []string
	IncludeText *bool // default: true
}

// FetchManyOutput contains the result of the FetchMany operation.
type FetchManyOutput struct {
	Items  []ItemView       `json:"items"`
	Errors []FetchManyError `json:"errors"`
}

// FetchManyError represents an error for a specific id.
type FetchManyError struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FetchMany retrieves several items by id, in the order given.
// Returns partial success with items and errors arrays.
func FetchMany(st *store.Store, input FetchManyInput) (*FetchManyOutput, error) {
	if len(input.IDs) == 0 {
		return nil, errors.NewInvalidRequest("ids is required and must not be empty")
	}
	if len(input.IDs) > MaxFetchManyItems {
		return nil, errors.NewInvalidRequest(
			fmt.Sprintf("too many ids: %d (max %d)", len(input.IDs), MaxFetchManyItems))
	}
	includeText := includeTextOr(input.IncludeText, true)

	out := &FetchManyOutput{
		Items:  []ItemView{},
		Errors: []FetchManyError{},
	}
	for _, raw := range input.IDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			out.Errors = append(out.Errors, FetchManyError{
				ID:      raw,
				Code:    string(errors.ErrInvalidRequest),
				Message: "id must not be empty",
			})
			continue
		}
		it, err := st.Get(id)
		if err != nil {
			out.Errors = append(out.Errors, idToError(id, err))
			continue
		}
		out.Items = append(out.Items, NewItemView(it, includeText))
	}
	return out, nil
}

// idToError converts an error to a FetchManyError.
func idToError(id string, err error) FetchManyError {
	if pErr, ok := errors.As(err); ok {
		return FetchManyError{ID: id, Code: string(pErr.Code), Message: pErr.Message}
	}
	return FetchManyError{ID: id, Code: string(errors.ErrInternal), Message: "an internal error occurred"}
}
