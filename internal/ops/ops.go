// Package ops implements the operations exposed by the MCP server, the web
// API, and the CLI. Each operation takes an XxxInput and returns an XxxOutput
// or a *errors.PillboxError.
package ops

import (
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/placeholder"
)

// Pagination limits
const (
	DefaultListLimit   = 50
	MaxListLimit       = 500
	MaxFetchManyItems  = 50
	MaxComposeItems    = 50
	MaxSummarizeItems  = 50
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// paginate clamps limit and offset and returns the page bounds for total items.
func paginate(total, limit, offset, defaultLimit, maxLimit int) (Pagination, int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = max(offset, 0)

	start := min(offset, total)
	end := min(start+limit, total)
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}, start, end
}

// ItemView is an item as returned to callers.
type ItemView struct {
	item.ItemSummary

	// Text is omitted when include_text is false.
	Text string `json:"text,omitempty"`

	SourceItems  []string `json:"source_items,omitempty"`
	Placeholders []string `json:"placeholders,omitempty"`
}

// NewItemView builds the view of it, including the text when includeText is set.
func NewItemView(it *item.Item, includeText bool) ItemView {
	v := ItemView{
		ItemSummary: it.ToSummary(),
		SourceItems: it.SourceItems,
	}
	if includeText {
		v.Text = it.Text
	}
	if it.Kind == item.KindPrompt {
		v.Placeholders = placeholder.Extract(it.Text)
	}
	return v
}

func viewsOf(items []*item.Item, includeText bool) []ItemView {
	views := make([]ItemView, len(items))
	for i, it := range items {
		views[i] = NewItemView(it, includeText)
	}
	return views
}

// parseKind parses a required kind.
func parseKind(s string) (item.Kind, error) {
	k, err := item.ParseKind(s)
	if err != nil {
		return "", errors.NewInvalidRequest(err.Error())
	}
	return k, nil
}

// parseOptionalKind parses a kind filter; "" matches every kind.
func parseOptionalKind(s string) (item.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return parseKind(s)
}

// parseOptionalColor parses a color name or hex value; nil leaves it unset.
func parseOptionalColor(s *string) (*item.Color, error) {
	if s == nil {
		return nil, nil
	}
	if strings.TrimSpace(*s) == "" {
		zero := item.Color{}
		return &zero, nil
	}
	c, err := item.ParseColor(*s)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return &c, nil
}

// cleanOptionalString trims whitespace and returns nil for nil or empty input.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func includeTextOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func errInvalid(err error) error {
	return errors.NewInvalidRequest(err.Error())
}
