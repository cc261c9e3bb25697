package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/store"
)

// BulkDeleteInput contains parameters for the BulkDelete operation.
type BulkDeleteInput struct {
	IDs []string
}

// BulkDeleteOutput contains the result of the BulkDelete operation.
type BulkDeleteOutput struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// BulkDelete removes every listed item, all or nothing: one unknown id
// fails the whole call with NOT_FOUND.
func BulkDelete(ctx context.Context, st *store.Store, input BulkDeleteInput) (*BulkDeleteOutput, error) {
	if len(input.IDs) == 0 {
		return nil, errors.NewInvalidRequest("ids is required and must not be empty")
	}

	count, err := st.BulkDelete(ctx, input.IDs)
	if err != nil {
		return nil, err
	}

	return &BulkDeleteOutput{
		Deleted: count,
		Message: fmt.Sprintf("Deleted %d %s", count, plural(count, "item")),
	}, nil
}
