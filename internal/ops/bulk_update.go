package ops

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/store"
)

// BulkUpdateInput contains parameters for the BulkUpdate operation.
type BulkUpdateInput struct {
	// Selection: explicit ids, or every item matching the filters.
	IDs      []string
	Kind     *string
	Category *string
	Platform *string

	// Updates (set_ prefix to distinguish from filters)
	SetCategory *string
	SetColor    *string // "" restores each kind's default color
}

// BulkUpdateOutput contains the result of the BulkUpdate operation.
type BulkUpdateOutput struct {
	Updated int    `json:"updated"`
	Message string `json:"message"`
}

// BulkUpdate changes category and color on every selected item, all or nothing.
// A selection is required (ids or at least one filter) as a safety guard.
func BulkUpdate(ctx context.Context, st *store.Store, input BulkUpdateInput) (*BulkUpdateOutput, error) {
	if input.SetCategory == nil && input.SetColor == nil {
		return nil, errors.NewInvalidRequest("at least one update field is required")
	}

	ids, filterDesc, err := selectIDs(st, input)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &BulkUpdateOutput{Message: "No items matched the selection"}, nil
	}

	color, err := parseOptionalColor(input.SetColor)
	if err != nil {
		return nil, err
	}

	updated, err := st.BulkUpdate(ctx, ids, store.BulkUpdateInput{
		Category: input.SetCategory,
		Color:    color,
	})
	if err != nil {
		return nil, err
	}

	return &BulkUpdateOutput{
		Updated: len(updated),
		Message: formatBulkUpdateMessage(len(updated), filterDesc, input),
	}, nil
}

// selectIDs resolves the selection to ids. Explicit ids win over filters.
func selectIDs(st *store.Store, input BulkUpdateInput) ([]string, []string, error) {
	if len(input.IDs) > 0 {
		return input.IDs, nil, nil
	}

	kindFilter := cleanOptionalString(input.Kind)
	category := cleanOptionalString(input.Category)
	platform := cleanOptionalString(input.Platform)
	if kindFilter == nil && category == nil && platform == nil {
		return nil, nil, errors.NewInvalidRequest("ids or at least one non-empty filter is required")
	}

	var (
		f    store.Filter
		desc []string
	)
	kind, err := parseOptionalKind(deref(kindFilter))
	if err != nil {
		return nil, nil, err
	}
	if kind != "" {
		desc = append(desc, fmt.Sprintf("kind=%q", kind))
	}
	if category != nil {
		f.Category = *category
		desc = append(desc, fmt.Sprintf("category=%q", *category))
	}
	if platform != nil {
		f.Platform = *platform
		desc = append(desc, fmt.Sprintf("platform=%q", *platform))
	}

	items := st.List(kind, f)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids, desc, nil
}

// formatBulkUpdateMessage creates a human-readable message for the bulk update result.
func formatBulkUpdateMessage(count int, filterDesc []string, input BulkUpdateInput) string {
	msg := fmt.Sprintf("Updated %d %s", count, plural(count, "item"))
	if len(filterDesc) > 0 {
		msg += " matching " + strings.Join(filterDesc, ", ")
	}

	var updateParts []string
	if input.SetCategory != nil {
		updateParts = append(updateParts, fmt.Sprintf("category=%q", strings.TrimSpace(*input.SetCategory)))
	}
	if input.SetColor != nil {
		if strings.TrimSpace(*input.SetColor) == "" {
			updateParts = append(updateParts, "color=default")
		} else {
			updateParts = append(updateParts, fmt.Sprintf("color=%q", strings.TrimSpace(*input.SetColor)))
		}
	}
	if len(updateParts) > 0 {
		msg += "; set " + strings.Join(updateParts, ", ")
	}
	return msg
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
