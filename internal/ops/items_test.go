package ops

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

func TestCreate_DefaultsAndPlaceholders(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := Create(context.Background(), rt.Store, CreateInput{
		Text: "Review [/TOPIC] since [/YEAR], not [/topic]. Again [/TOPIC].",
	})
	require.NoError(t, err)

	if out.Kind != item.KindPrompt {
		t.Errorf("Kind = %s, want prompt", out.Kind)
	}
	if out.Order != 0 {
		t.Errorf("Order = %d, want 0", out.Order)
	}
	require.Equal(t, []string{"TOPIC", "YEAR"}, out.Placeholders)
	require.Equal(t, []string{"[/topic]"}, out.MalformedTokens)

	it, err := rt.Store.Get(out.ID)
	require.NoError(t, err)
	if it.Category != item.CategoryUncategorized {
		t.Errorf("Category = %q", it.Category)
	}
	if it.Color != item.DefaultColor(item.KindPrompt) {
		t.Errorf("Color = %v", it.Color)
	}
}

func TestCreate_Validation(t *testing.T) {
	rt := newTestRuntime(t)

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"empty text", CreateInput{Text: "  "}},
		{"unknown kind", CreateInput{Kind: "note", Text: "x"}},
		{"bad color", CreateInput{Text: "x", Color: stringPtr("#12")}},
		{"unknown category", CreateInput{Text: "x", Category: "Nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(context.Background(), rt.Store, tt.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("got %v, want INVALID_REQUEST", err)
			}
		})
	}
}

func TestCreate_TooLarge(t *testing.T) {
	rt := newTestRuntime(t, func(c *config.Config) { c.ItemMaxChars = 10 })

	_, err := Create(context.Background(), rt.Store, CreateInput{Text: "this is longer than ten"})
	if !errors.Is(err, errors.ErrItemTooLarge) {
		t.Errorf("got %v, want ITEM_TOO_LARGE", err)
	}
}

func TestFetch(t *testing.T) {
	rt := newTestRuntime(t)
	id := mustCreate(t, rt, "prompt", "Explain [/TOPIC]")

	out, err := Fetch(rt.Store, FetchInput{ID: id})
	require.NoError(t, err)
	if out.Text != "Explain [/TOPIC]" {
		t.Errorf("Text = %q", out.Text)
	}
	require.Equal(t, []string{"TOPIC"}, out.Placeholders)

	out, err = Fetch(rt.Store, FetchInput{ID: id, IncludeText: boolPtr(false)})
	require.NoError(t, err)
	if out.Text != "" {
		t.Errorf("Text = %q, want omitted", out.Text)
	}

	if _, err := Fetch(rt.Store, FetchInput{ID: "01NOPE"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing: got %v", err)
	}
	if _, err := Fetch(rt.Store, FetchInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty id: got %v", err)
	}
}

func TestFetchMany_PartialSuccess(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustCreate(t, rt, "prompt", "alpha")
	b := mustCreate(t, rt, "response", "beta")

	out, err := FetchMany(rt.Store, FetchManyInput{IDs: []string{b, "01MISSING", " ", a}})
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	if out.Items[0].ID != b || out.Items[1].ID != a {
		t.Errorf("items out of request order")
	}
	require.Len(t, out.Errors, 2)
	if out.Errors[0].Code != string(errors.ErrNotFound) {
		t.Errorf("Errors[0].Code = %s", out.Errors[0].Code)
	}
	if out.Errors[1].Code != string(errors.ErrInvalidRequest) {
		t.Errorf("Errors[1].Code = %s", out.Errors[1].Code)
	}
}

func TestUpdate(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	id := mustCreate(t, rt, "prompt", "first text")

	out, err := Update(ctx, rt.Store, UpdateInput{ID: id, Text: stringPtr("second text")})
	require.NoError(t, err)
	if out.Title != "second text" {
		t.Errorf("derived title not refreshed: %q", out.Title)
	}

	out, err = Update(ctx, rt.Store, UpdateInput{ID: id, Title: stringPtr("Pinned"), Color: stringPtr("red")})
	require.NoError(t, err)
	if out.Title != "Pinned" {
		t.Errorf("Title = %q", out.Title)
	}
	it, _ := rt.Store.Get(id)
	if it.Color != item.Labeled(item.ColorRed) {
		t.Errorf("Color = %v", it.Color)
	}

	// An explicit title survives text edits.
	_, err = Update(ctx, rt.Store, UpdateInput{ID: id, Text: stringPtr("third text")})
	require.NoError(t, err)
	it, _ = rt.Store.Get(id)
	if it.Title != "Pinned" {
		t.Errorf("Title = %q, want Pinned", it.Title)
	}

	if _, err := Update(ctx, rt.Store, UpdateInput{ID: id}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("no fields: got %v", err)
	}
	if _, err := Update(ctx, rt.Store, UpdateInput{ID: id, Text: stringPtr(" ")}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty text: got %v", err)
	}
}

func TestMoveAndReorder(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	a := mustCreate(t, rt, "prompt", "a")
	b := mustCreate(t, rt, "prompt", "b")
	c := mustCreate(t, rt, "prompt", "c")

	moved, err := Move(ctx, rt.Store, MoveInput{IDs: []string{b}, To: "response"})
	require.NoError(t, err)
	require.Equal(t, []MovedItem{{ID: b, Kind: "response", Order: 0}}, moved.Moved)

	list, err := List(rt.Store, ListInput{Kind: "prompt"})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	if list.Items[0].ID != a || list.Items[0].Order != 0 || list.Items[1].ID != c || list.Items[1].Order != 1 {
		t.Errorf("prompt sequence not repacked: %+v", list.Items)
	}

	re, err := Reorder(ctx, rt.Store, ReorderInput{Kind: "prompt", IDs: []string{c, a}})
	require.NoError(t, err)
	require.Equal(t, []string{c, a}, re.Order)

	_, err = Reorder(ctx, rt.Store, ReorderInput{Kind: "prompt", IDs: []string{c}})
	if !errors.Is(err, errors.ErrInvalidReorder) {
		t.Errorf("partial reorder: got %v", err)
	}
	_, err = Reorder(ctx, rt.Store, ReorderInput{Kind: "prompt", IDs: []string{c, c}})
	if !errors.Is(err, errors.ErrInvalidReorder) {
		t.Errorf("duplicate reorder: got %v", err)
	}
}

func TestDeleteAndBulkDelete(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	a := mustCreate(t, rt, "prompt", "a")
	b := mustCreate(t, rt, "prompt", "b")
	c := mustCreate(t, rt, "prompt", "c")

	out, err := Delete(ctx, rt.Store, DeleteInput{ID: a})
	require.NoError(t, err)
	if !out.Deleted {
		t.Error("Deleted = false")
	}

	// One unknown id aborts the whole batch.
	_, err = BulkDelete(ctx, rt.Store, BulkDeleteInput{IDs: []string{b, "01MISSING"}})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("got %v, want NOT_FOUND", err)
	}
	if rt.Store.Count(item.KindPrompt) != 2 {
		t.Errorf("Count = %d after failed bulk delete", rt.Store.Count(item.KindPrompt))
	}

	bulk, err := BulkDelete(ctx, rt.Store, BulkDeleteInput{IDs: []string{b, c}})
	require.NoError(t, err)
	if bulk.Deleted != 2 || bulk.Message != "Deleted 2 items" {
		t.Errorf("got %+v", bulk)
	}
}

func TestBulkUpdate(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	mustCreate(t, rt, "prompt", "a")
	mustCreate(t, rt, "prompt", "b")
	r := mustCreate(t, rt, "response", "c")

	out, err := BulkUpdate(ctx, rt.Store, BulkUpdateInput{
		Kind:        stringPtr("prompt"),
		SetCategory: stringPtr("analysis / interpretation"),
		SetColor:    stringPtr("#00ff00"),
	})
	require.NoError(t, err)
	if out.Updated != 2 {
		t.Errorf("Updated = %d, want 2", out.Updated)
	}
	require.Equal(t, `Updated 2 items matching kind="prompt"; set category="analysis / interpretation", color="#00ff00"`, out.Message)

	for _, it := range rt.Store.List(item.KindPrompt, store.Filter{}) {
		if it.Category != item.CategoryAnalysis || it.Color != item.Custom("#00FF00") {
			t.Errorf("item %s: %q %v", it.ID, it.Category, it.Color)
		}
	}
	resp, _ := rt.Store.Get(r)
	if resp.Category != item.CategoryUncategorized {
		t.Errorf("response was updated: %q", resp.Category)
	}

	none, err := BulkUpdate(ctx, rt.Store, BulkUpdateInput{Platform: stringPtr("gemini"), SetColor: stringPtr("")})
	require.NoError(t, err)
	if none.Updated != 0 || none.Message != "No items matched the selection" {
		t.Errorf("got %+v", none)
	}

	if _, err := BulkUpdate(ctx, rt.Store, BulkUpdateInput{SetColor: stringPtr("red")}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("no selection: got %v", err)
	}
	if _, err := BulkUpdate(ctx, rt.Store, BulkUpdateInput{IDs: []string{r}}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("no updates: got %v", err)
	}
}

func TestList_FiltersAndPagination(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	for i := range 5 {
		mustCreate(t, rt, "prompt", "prompt number "+string(rune('a'+i)))
	}
	_, err := Create(ctx, rt.Store, CreateInput{Kind: "response", Text: "from gemini", SourcePlatform: "gemini"})
	require.NoError(t, err)

	page, err := List(rt.Store, ListInput{Kind: "prompt", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	if page.Items[0].Order != 2 || !page.Pagination.HasMore || page.Pagination.Total != 5 {
		t.Errorf("got %+v", page.Pagination)
	}
	if page.Items[0].Text != "" {
		t.Error("text included without include_text")
	}

	byPlatform, err := List(rt.Store, ListInput{Platform: stringPtr("GEMINI"), IncludeText: true})
	require.NoError(t, err)
	require.Len(t, byPlatform.Items, 1)
	if byPlatform.Items[0].Text != "from gemini" {
		t.Errorf("Text = %q", byPlatform.Items[0].Text)
	}

	byQuery, err := List(rt.Store, ListInput{Query: stringPtr("NUMBER C")})
	require.NoError(t, err)
	require.Len(t, byQuery.Items, 1)

	byColor, err := List(rt.Store, ListInput{Color: stringPtr("blue")})
	require.NoError(t, err)
	require.Len(t, byColor.Items, 1)

	if _, err := List(rt.Store, ListInput{Kind: "notes"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad kind: got %v", err)
	}
}

func TestInventory(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	mustCreate(t, rt, "prompt", "one two three")
	_, err := Create(ctx, rt.Store, CreateInput{Kind: "response", Text: "answer", SourcePlatform: "chatgpt"})
	require.NoError(t, err)
	_, err = Create(ctx, rt.Store, CreateInput{Kind: "response", Text: "another", SourcePlatform: "chatgpt"})
	require.NoError(t, err)

	out, err := Inventory(rt.Store, InventoryInput{})
	require.NoError(t, err)
	require.Len(t, out.Kinds, 3)
	if out.Kinds[0].Count != 1 || out.Kinds[0].TextChars != 13 {
		t.Errorf("prompt stats = %+v", out.Kinds[0])
	}
	if out.Kinds[1].Count != 2 {
		t.Errorf("response stats = %+v", out.Kinds[1])
	}
	require.Equal(t, []NameCount{{Name: "chatgpt", Count: 2}}, out.Platforms)
	require.Equal(t, []NameCount{{Name: "Uncategorized", Count: 3}}, out.Categories)
}

func TestLatest(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	out, err := Latest(rt.Store, LatestInput{})
	require.NoError(t, err)
	if out.Item != nil {
		t.Fatalf("Item = %+v, want nil", out.Item)
	}

	_, err = Create(ctx, rt.Store, CreateInput{Kind: "response", Text: "older", SourcePlatform: "claude"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	newer, err := Create(ctx, rt.Store, CreateInput{Kind: "response", Text: "newer", SourcePlatform: "gemini"})
	require.NoError(t, err)

	// Reordering does not change which item is newest.
	items := rt.Store.List(item.KindResponse, store.Filter{})
	require.NoError(t, rt.Store.Reorder(ctx, item.KindResponse, []string{items[1].ID, items[0].ID}))

	out, err = Latest(rt.Store, LatestInput{IncludeText: boolPtr(true)})
	require.NoError(t, err)
	if out.Item == nil || out.Item.ID != newer.ID || out.Item.Text != "newer" {
		t.Errorf("Item = %+v, want %s", out.Item, newer.ID)
	}

	out, err = Latest(rt.Store, LatestInput{Platform: stringPtr("claude")})
	require.NoError(t, err)
	if out.Item == nil || out.Item.Title != "older" {
		t.Errorf("Item = %+v, want older", out.Item)
	}
}
