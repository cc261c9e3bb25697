package ops

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

func TestPurge(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	mustCreate(t, rt, "summary", "old summary")
	mustCreate(t, rt, "summary", "another")
	pending, err := rt.Store.CreatePending(ctx, store.PendingInput{Platform: "claude"})
	require.NoError(t, err)
	keep := mustCreate(t, rt, "response", "kept response")

	later := func() time.Time { return time.Now().Add(48 * time.Hour) }

	out, err := Purge(ctx, rt.Store, PurgeInput{Kind: "summary", OlderThanDays: intPtr(3), Now: later})
	require.NoError(t, err)
	if out.Purged != 0 || out.Message != "No summary items to purge" {
		t.Errorf("got %+v", out)
	}

	out, err = Purge(ctx, rt.Store, PurgeInput{Kind: "summary", OlderThanDays: intPtr(1), Now: later})
	require.NoError(t, err)
	require.Equal(t, 2, out.Purged)
	require.Equal(t, "Permanently deleted 2 summary items (not updated for 1 days)", out.Message)

	if _, err := rt.Store.Get(pending.ID); err != nil {
		t.Errorf("pending summary was purged: %v", err)
	}
	if _, err := rt.Store.Get(keep); err != nil {
		t.Errorf("response was purged: %v", err)
	}
}

func TestPurge_Validation(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	if _, err := Purge(ctx, rt.Store, PurgeInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing kind: got %v", err)
	}
	if _, err := Purge(ctx, rt.Store, PurgeInput{Kind: "prompt", OlderThanDays: intPtr(-1)}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative days: got %v", err)
	}
}

func TestAppend(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	id := mustCreate(t, rt, "prompt", "## Goals\n(tbd)\n\n## Notes\nsome notes\n")

	out, err := Append(ctx, rt.Store, AppendInput{ID: id, Section: "goals", Content: "ship [/FEATURE]"})
	require.NoError(t, err)
	if out.SectionHit != "## Goals" || !out.Replaced {
		t.Errorf("got %+v", out)
	}

	out, err = Append(ctx, rt.Store, AppendInput{ID: id, Section: "Notes", Content: "more notes"})
	require.NoError(t, err)
	if out.Replaced {
		t.Error("Replaced = true for a section with content")
	}

	out, err = Append(ctx, rt.Store, AppendInput{ID: id, Content: "trailer"})
	require.NoError(t, err)

	it, err := rt.Store.Get(id)
	require.NoError(t, err)
	if strings.Contains(it.Text, "(tbd)") {
		t.Errorf("filler not replaced: %q", it.Text)
	}
	if !strings.Contains(it.Text, "## Goals\nship [/FEATURE]\n") {
		t.Errorf("goal missing: %q", it.Text)
	}
	if !strings.Contains(it.Text, "some notes\n\nmore notes") {
		t.Errorf("note not appended: %q", it.Text)
	}
	if !strings.HasSuffix(it.Text, "more notes\n\ntrailer") {
		t.Errorf("trailer not at end: %q", it.Text)
	}
	if out.TextChars != item.CountChars(it.Text) {
		t.Errorf("TextChars = %d", out.TextChars)
	}
}

func TestAppend_Errors(t *testing.T) {
	rt := newTestRuntime(t, func(c *config.Config) { c.ItemMaxChars = 40 })
	ctx := context.Background()
	plain := mustCreate(t, rt, "prompt", "no headings here")
	headed := mustCreate(t, rt, "prompt", "## Only\nbody")

	tests := []struct {
		name  string
		input AppendInput
		code  errors.ErrorCode
	}{
		{"missing id", AppendInput{Content: "x"}, errors.ErrInvalidRequest},
		{"missing content", AppendInput{ID: plain, Content: " "}, errors.ErrInvalidRequest},
		{"unknown item", AppendInput{ID: "01MISSING", Content: "x"}, errors.ErrNotFound},
		{"no headings", AppendInput{ID: plain, Section: "Only", Content: "x"}, errors.ErrInvalidRequest},
		{"unknown section", AppendInput{ID: headed, Section: "Other", Content: "x"}, errors.ErrInvalidRequest},
		{"too large", AppendInput{ID: plain, Content: strings.Repeat("y", 40)}, errors.ErrItemTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Append(ctx, rt.Store, tt.input)
			if !errors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}

	it, _ := rt.Store.Get(plain)
	if it.Text != "no headings here" {
		t.Errorf("failed append changed text: %q", it.Text)
	}
}

func TestCategories(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()

	added, err := AddCategory(ctx, rt.Store, AddCategoryInput{Name: "  Grant Writing "})
	require.NoError(t, err)
	if added.Name != "Grant Writing" || !added.Added {
		t.Errorf("got %+v", added)
	}

	again, err := AddCategory(ctx, rt.Store, AddCategoryInput{Name: "grant writing"})
	require.NoError(t, err)
	if again.Added || again.Name != "Grant Writing" {
		t.Errorf("got %+v", again)
	}

	_, err = Create(ctx, rt.Store, CreateInput{Text: "x", Category: "GRANT WRITING"})
	require.NoError(t, err)

	list := ListCategories(rt.Store)
	last := list.Categories[len(list.Categories)-1]
	require.Equal(t, CategoryView{Name: "Grant Writing", Preset: false, Items: 1}, last)
	require.Len(t, list.Categories, len(item.PresetCategories)+1)
	if !list.Categories[0].Preset {
		t.Error("presets not listed first")
	}

	if _, err := AddCategory(ctx, rt.Store, AddCategoryInput{Name: " "}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty name: got %v", err)
	}
}

func intPtr(n int) *int { return &n }
