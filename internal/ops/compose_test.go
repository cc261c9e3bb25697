package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
)

func TestCompose_ValuesAndFreeText(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	a := mustCreate(t, rt, "prompt", "Summarize [/PAPER].")
	b := mustCreate(t, rt, "prompt", "Focus on [/ASPECT] in [/PAPER].")

	out, err := Compose(ctx, rt.Store, rt.Config, ComposeInput{
		ItemIDs:  []string{b, a},
		FreeText: "[/ASPECT]=\"methods\"\nKeep it short.",
		Values:   map[string]string{"PAPER": "Smith 2020"},
	})
	require.NoError(t, err)
	require.Equal(t, "Focus on methods in Smith 2020.\n\nSummarize Smith 2020.\n\nKeep it short.", out.Text)
	require.Equal(t, []string{"ASPECT", "PAPER"}, out.Placeholders)
	if out.Parts != 2 || out.Chars != item.CountChars(out.Text) {
		t.Errorf("Parts = %d, Chars = %d", out.Parts, out.Chars)
	}
}

func TestCompose_MissingValues(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	id := mustCreate(t, rt, "prompt", "Compare [/A] with [/B]")

	_, err := Compose(ctx, rt.Store, rt.Config, ComposeInput{ItemIDs: []string{id}, Values: map[string]string{"B": "y"}})
	if !errors.Is(err, errors.ErrUnresolvedPlaceholder) {
		t.Fatalf("got %v, want UNRESOLVED_PLACEHOLDER", err)
	}

	out, err := Compose(ctx, rt.Store, rt.Config, ComposeInput{
		ItemIDs:      []string{id},
		Values:       map[string]string{"B": "y"},
		AllowMissing: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Compare [/A] with y", out.Text)
	require.Equal(t, []string{"A"}, out.Missing)
}

func TestCompose_Errors(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	resp := mustCreate(t, rt, "response", "an answer")

	tests := []struct {
		name  string
		input ComposeInput
		code  errors.ErrorCode
	}{
		{"nothing selected", ComposeInput{FreeText: "  "}, errors.ErrInvalidRequest},
		{"unknown item", ComposeInput{ItemIDs: []string{"01MISSING"}}, errors.ErrNotFound},
		{"not a prompt", ComposeInput{ItemIDs: []string{resp}}, errors.ErrInvalidKind},
		{"bad glob", ComposeInput{FreeText: "q", FileGlob: "[", FileRoot: t.TempDir()}, errors.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(ctx, rt.Store, rt.Config, tt.input)
			if !errors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCompose_FileContext(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("alpha notes\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("not matched"), 0o600))

	out, err := Compose(ctx, rt.Store, rt.Config, ComposeInput{
		FreeText:  "What do these say?",
		FilePaths: []string{filepath.Join(dir, "gone.txt")},
		FileGlob:  "*.md",
		FileRoot:  dir,
	})
	require.NoError(t, err)

	require.Len(t, out.Files, 2)
	if out.Files[0].Error == "" {
		t.Error("missing file has no error")
	}
	if out.Files[1].Format != "markdown" || out.Files[1].Chars != 11 {
		t.Errorf("Files[1] = %+v", out.Files[1])
	}

	want := "## UPLOADED FILE CONTEXT\n\n" +
		"### File: gone.txt\n[Error extracting content: " + out.Files[0].Error + "]\n\n" +
		"### File: notes.md\nalpha notes\n" +
		"\n\n## QUERY\n\nWhat do these say?"
	require.Equal(t, want, out.Text)
}

func TestCompose_StoreAs(t *testing.T) {
	rt := newTestRuntime(t)
	ctx := context.Background()
	id := mustCreate(t, rt, "prompt", "Hello [/NAME]")

	out, err := Compose(ctx, rt.Store, rt.Config, ComposeInput{
		ItemIDs:   []string{id},
		Values:    map[string]string{"NAME": "world"},
		Separator: stringPtr(" | "),
		StoreAs:   &ComposeStoreAs{Title: "Greeting", Category: "Background / Theory"},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Stored)

	stored, err := rt.Store.Get(out.Stored.ID)
	require.NoError(t, err)
	if stored.Text != "Hello world" || stored.Title != "Greeting" || stored.Category != item.CategoryBackground {
		t.Errorf("stored = %+v", stored)
	}
	if stored.Order != 1 {
		t.Errorf("Order = %d, want 1", stored.Order)
	}
}

func TestComposePreview(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustCreate(t, rt, "prompt", "Use [/TOOL]")
	b := mustCreate(t, rt, "prompt", "for [/TASK] with [/TOOL]")

	out, err := ComposePreview(rt.Store, rt.Config, ComposePreviewInput{
		ItemIDs: []string{a, b},
		Values:  map[string]string{"TOOL": "grep"},
	})
	require.NoError(t, err)
	require.Equal(t, "Use grep\n\nfor [/TASK] with grep", out.Text)
	require.Equal(t, []string{"TOOL", "TASK"}, out.Placeholders)
	require.Equal(t, []string{"TASK"}, out.Missing)

	if _, err := ComposePreview(rt.Store, rt.Config, ComposePreviewInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty selection: got %v", err)
	}
}
