package ops

import (
	"context"

	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// CategoryView is one category with its usage count.
type CategoryView struct {
	Name   item.Category `json:"name"`
	Preset bool          `json:"preset"`
	Items  int           `json:"items"`
}

// ListCategoriesOutput contains the result of the ListCategories operation.
type ListCategoriesOutput struct {
	Categories []CategoryView `json:"categories"`
}

// ListCategories returns presets followed by custom categories, with how
// many items use each.
func ListCategories(st *store.Store) *ListCategoriesOutput {
	counts := make(map[item.Category]int)
	for _, it := range st.List("", store.Filter{}) {
		counts[it.Category]++
	}

	cats := st.Categories()
	out := &ListCategoriesOutput{Categories: make([]CategoryView, len(cats))}
	for i, c := range cats {
		out.Categories[i] = CategoryView{Name: c, Preset: c.IsPreset(), Items: counts[c]}
	}
	return out
}

// AddCategoryInput contains parameters for the AddCategory operation.
type AddCategoryInput struct {
	Name string
}

// AddCategoryOutput contains the result of the AddCategory operation.
type AddCategoryOutput struct {
	Name  item.Category `json:"name"`
	Added bool          `json:"added"`
}

// AddCategory registers a custom category. Adding an existing name, in any
// letter case, is not an error.
func AddCategory(ctx context.Context, st *store.Store, input AddCategoryInput) (*AddCategoryOutput, error) {
	cat, added, err := st.AddCategory(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	return &AddCategoryOutput{Name: cat, Added: added}, nil
}
