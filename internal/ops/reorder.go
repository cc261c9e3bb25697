package ops

import (
	"context"

	"github.com/hpungsan/pillbox/internal/store"
)

// ReorderInput contains parameters for the Reorder operation.
type ReorderInput struct {
	Kind string
	IDs  []string // every id of the kind, in the new order
}

// ReorderOutput contains the result of the Reorder operation.
type ReorderOutput struct {
	Kind  string   `json:"kind"`
	Order []string `json:"order"`
}

// Reorder replaces a kind's sequence. The ids must be exactly the kind's
// current items; anything else is INVALID_REORDER and changes nothing.
func Reorder(ctx context.Context, st *store.Store, input ReorderInput) (*ReorderOutput, error) {
	kind, err := parseKind(input.Kind)
	if err != nil {
		return nil, err
	}
	if err := st.Reorder(ctx, kind, input.IDs); err != nil {
		return nil, err
	}

	items := st.List(kind, store.Filter{})
	order := make([]string, len(items))
	for i, it := range items {
		order[i] = it.ID
	}
	return &ReorderOutput{Kind: string(kind), Order: order}, nil
}
