package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/store"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string

	// Editable fields (nil = don't change)
	Text     *string
	Title    *string // "" re-derives the title from the text
	Category *string
	Color    *string // "" restores the kind's default color
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Update modifies an existing item.
func Update(ctx context.Context, st *store.Store, input UpdateInput) (*UpdateOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Text == nil && input.Title == nil && input.Category == nil && input.Color == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	if input.Text != nil && strings.TrimSpace(*input.Text) == "" {
		return nil, errors.NewInvalidRequest("text must not be empty")
	}

	color, err := parseOptionalColor(input.Color)
	if err != nil {
		return nil, err
	}

	it, err := st.Update(ctx, id, store.UpdateInput{
		Text:     input.Text,
		Title:    input.Title,
		Category: input.Category,
		Color:    color,
	})
	if err != nil {
		return nil, err
	}

	return &UpdateOutput{ID: it.ID, Title: it.Title}, nil
}
