package ops

import (
	"sort"

	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// InventoryInput contains parameters for the Inventory operation.
type InventoryInput struct {
	Kind string // optional; "" covers every kind
}

// InventoryOutput summarizes the collection for context budgeting.
type InventoryOutput struct {
	Kinds      []KindStats `json:"kinds"`
	Categories []NameCount `json:"categories"`
	Platforms  []NameCount `json:"platforms"`
}

// KindStats are totals for one kind.
type KindStats struct {
	Kind           item.Kind `json:"kind"`
	Count          int       `json:"count"`
	Pending        int       `json:"pending,omitempty"`
	TextChars      int       `json:"text_chars"`
	TokensEstimate int       `json:"tokens_estimate"`
}

// NameCount is a label with the number of items carrying it.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Inventory counts items per kind, category, and source platform.
func Inventory(st *store.Store, input InventoryInput) (*InventoryOutput, error) {
	kind, err := parseOptionalKind(input.Kind)
	if err != nil {
		return nil, err
	}
	kinds := item.Kinds
	if kind != "" {
		kinds = []item.Kind{kind}
	}

	out := &InventoryOutput{Kinds: make([]KindStats, 0, len(kinds))}
	categories := make(map[string]int)
	platforms := make(map[string]int)
	for _, k := range kinds {
		stats := KindStats{Kind: k}
		for _, it := range st.List(k, store.Filter{}) {
			stats.Count++
			stats.TextChars += it.TextChars
			stats.TokensEstimate += it.TokensEstimate
			if it.Pending {
				stats.Pending++
			}
			categories[string(it.Category)]++
			if p := it.Platform(); p != "" {
				platforms[p]++
			}
		}
		out.Kinds = append(out.Kinds, stats)
	}
	out.Categories = sortedCounts(categories)
	out.Platforms = sortedCounts(platforms)
	return out, nil
}

// sortedCounts orders by count descending, then name.
func sortedCounts(m map[string]int) []NameCount {
	out := make([]NameCount, 0, len(m))
	for name, n := range m {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
