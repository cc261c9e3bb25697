package ops

import (
	"context"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Kind           string  // default: prompt
	Text           string  // required
	Title          *string // default: derived from text
	Category       string  // default: Uncategorized
	Color          *string // label or #RRGGBB; default: the kind's color
	SourcePlatform string
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID    string    `json:"id"`
	Kind  item.Kind `json:"kind"`
	Order int       `json:"order"`
	Title string    `json:"title"`

	// Placeholders lists the [/NAME] slots of a prompt.
	Placeholders []string `json:"placeholders,omitempty"`

	// MalformedTokens lists [/...] tokens that will be sent verbatim.
	MalformedTokens []string `json:"malformed_tokens,omitempty"`
}

// Create adds an item at the end of its kind's sequence.
func Create(ctx context.Context, st *store.Store, input CreateInput) (*CreateOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, errors.NewInvalidRequest("text is required")
	}

	kind := item.KindPrompt
	if strings.TrimSpace(input.Kind) != "" {
		var err error
		if kind, err = parseKind(input.Kind); err != nil {
			return nil, err
		}
	}

	color, err := parseOptionalColor(input.Color)
	if err != nil {
		return nil, err
	}

	in := store.CreateInput{
		Kind:           kind,
		Text:           input.Text,
		Category:       input.Category,
		SourcePlatform: input.SourcePlatform,
	}
	if input.Title != nil {
		in.Title = *input.Title
	}
	if color != nil {
		in.Color = *color
	}

	it, err := st.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	lint := item.Lint(item.LintInput{Text: it.Text, Kind: it.Kind})
	return &CreateOutput{
		ID:              it.ID,
		Kind:            it.Kind,
		Order:           it.Order,
		Title:           it.Title,
		Placeholders:    lint.Placeholders,
		MalformedTokens: lint.MalformedTokens,
	}, nil
}
