package ops

import (
	"context"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/store"
)

// MoveInput contains parameters for the Move operation.
type MoveInput struct {
	IDs []string // required; one id moves a single item
	To  string   // destination kind
}

// MoveOutput contains the result of the Move operation.
type MoveOutput struct {
	Moved []MovedItem `json:"moved"`
}

// MovedItem reports an item's position after a move.
type MovedItem struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Order int    `json:"order"`
}

// Move moves items to another kind, all or nothing. Moved items are
// appended to the destination in the order given.
func Move(ctx context.Context, st *store.Store, input MoveInput) (*MoveOutput, error) {
	if len(input.IDs) == 0 {
		return nil, errors.NewInvalidRequest("ids is required and must not be empty")
	}
	to, err := parseKind(input.To)
	if err != nil {
		return nil, err
	}

	moved, err := st.BulkMove(ctx, input.IDs, to)
	if err != nil {
		return nil, err
	}

	out := &MoveOutput{Moved: make([]MovedItem, len(moved))}
	for i, it := range moved {
		out.Moved[i] = MovedItem{ID: it.ID, Kind: string(it.Kind), Order: it.Order}
	}
	return out, nil
}
