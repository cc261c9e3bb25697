package ops

import (
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// LatestInput contains parameters for the Latest operation.
type LatestInput struct {
	Kind        string  // default: response
	Platform    *string // optional filter
	IncludeText *bool   // default: false (summary only)
}

// LatestOutput contains the result of the Latest operation.
type LatestOutput struct {
	Item *ItemView `json:"item"` // nil if nothing matches
}

// Latest retrieves the most recently created item of a kind, typically the
// last captured response.
func Latest(st *store.Store, input LatestInput) (*LatestOutput, error) {
	kind := item.KindResponse
	if input.Kind != "" {
		var err error
		if kind, err = parseKind(input.Kind); err != nil {
			return nil, err
		}
	}

	var f store.Filter
	if p := cleanOptionalString(input.Platform); p != nil {
		f.Platform = *p
	}

	var latest *item.Item
	for _, it := range st.List(kind, f) {
		// ULIDs sort by creation time, breaking ties within one second.
		if latest == nil || it.CreatedAt > latest.CreatedAt ||
			(it.CreatedAt == latest.CreatedAt && it.ID > latest.ID) {
			latest = it
		}
	}
	if latest == nil {
		return &LatestOutput{Item: nil}, nil
	}

	v := NewItemView(latest, includeTextOr(input.IncludeText, false))
	return &LatestOutput{Item: &v}, nil
}
