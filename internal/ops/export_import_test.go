package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// allowDir lets import and export use dir.
func allowDir(dir string) func(*config.Config) {
	return func(c *config.Config) { c.AllowedPaths = []string{dir} }
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestExportImport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := newTestRuntime(t, allowDir(dir))
	ctx := context.Background()

	prompt := mustCreate(t, src, "prompt", "Explain [/TOPIC]")
	resp, err := src.Store.Create(ctx, store.CreateInput{Kind: item.KindResponse, Text: "<b>answer</b>", SourcePlatform: "claude"})
	require.NoError(t, err)
	sum, err := src.Store.Create(ctx, store.CreateInput{Kind: item.KindSummary, Text: "short", SourceItems: []string{resp.ID}, Color: item.Custom("#123456")})
	require.NoError(t, err)
	_, err = src.Store.CreatePending(ctx, store.PendingInput{Platform: "claude"})
	require.NoError(t, err)

	path := filepath.Join(dir, "all.jsonl")
	exp, err := Export(ctx, src.Store, src.Config, ExportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 4, exp.Count)

	lines := readLines(t, path)
	require.Len(t, lines, 5)
	var header ExportHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	if !header.PillboxExport || header.SchemaVersion != ExportSchemaVersion {
		t.Errorf("header = %+v", header)
	}
	if !strings.Contains(lines[2], `"<b>answer</b>"`) {
		t.Errorf("HTML escaped in export: %s", lines[2])
	}

	dst := newTestRuntime(t, allowDir(dir))
	imp, err := Import(ctx, dst.Store, dst.Config, ImportInput{Path: path})
	require.NoError(t, err)
	require.Empty(t, imp.Errors)
	if imp.Imported != 3 || imp.Skipped != 1 {
		t.Errorf("Imported = %d, Skipped = %d", imp.Imported, imp.Skipped)
	}

	prompts := dst.Store.List(item.KindPrompt, store.Filter{})
	responses := dst.Store.List(item.KindResponse, store.Filter{})
	summaries := dst.Store.List(item.KindSummary, store.Filter{})
	require.Len(t, prompts, 1)
	require.Len(t, responses, 1)
	require.Len(t, summaries, 1)

	if prompts[0].ID == prompt || prompts[0].Text != "Explain [/TOPIC]" {
		t.Errorf("prompt = %+v", prompts[0])
	}
	if responses[0].Platform() != "claude" {
		t.Errorf("platform = %q", responses[0].Platform())
	}
	got := summaries[0]
	require.Equal(t, []string{responses[0].ID}, got.SourceItems)
	if got.ID == sum.ID || got.Color != item.Custom("#123456") {
		t.Errorf("summary = %+v", got)
	}
}

func TestExport_KindAndIDs(t *testing.T) {
	dir := t.TempDir()
	rt := newTestRuntime(t, allowDir(dir))
	ctx := context.Background()
	a := mustCreate(t, rt, "prompt", "a")
	b := mustCreate(t, rt, "prompt", "b")
	r := mustCreate(t, rt, "response", "r")

	out, err := Export(ctx, rt.Store, rt.Config, ExportInput{Path: filepath.Join(dir, "p.jsonl"), Kind: "prompt"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)

	out, err = Export(ctx, rt.Store, rt.Config, ExportInput{Path: filepath.Join(dir, "sel.jsonl"), IDs: []string{r, b}})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)
	lines := readLines(t, out.Path)
	var first item.ExportRecord
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &first))
	if first.ID != r {
		t.Errorf("first exported = %s, want %s", first.ID, r)
	}

	_, err = Export(ctx, rt.Store, rt.Config, ExportInput{Path: filepath.Join(dir, "x.jsonl"), IDs: []string{a, "01MISSING"}})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("unknown id: got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "x.jsonl")); !os.IsNotExist(statErr) {
		t.Error("failed export left a file")
	}
}

func TestImport_Duplicates(t *testing.T) {
	dir := t.TempDir()
	rt := newTestRuntime(t, allowDir(dir))
	ctx := context.Background()
	mustCreate(t, rt, "prompt", "one")
	mustCreate(t, rt, "prompt", "two")

	path := filepath.Join(dir, "dup.jsonl")
	_, err := Export(ctx, rt.Store, rt.Config, ExportInput{Path: path})
	require.NoError(t, err)

	out, err := Import(ctx, rt.Store, rt.Config, ImportInput{Path: path})
	require.NoError(t, err)
	require.Len(t, out.Errors, 2)
	if out.Imported != 0 || out.Errors[0].Code != "DUPLICATE" || out.Errors[0].Line != 2 {
		t.Errorf("error mode: %+v", out)
	}

	out, err = Import(ctx, rt.Store, rt.Config, ImportInput{Path: path, Mode: ImportModeSkip})
	require.NoError(t, err)
	if out.Imported != 0 || out.Skipped != 2 {
		t.Errorf("skip mode: %+v", out)
	}

	out, err = Import(ctx, rt.Store, rt.Config, ImportInput{Path: path, Mode: ImportModeKeep})
	require.NoError(t, err)
	if out.Imported != 2 || rt.Store.Count(item.KindPrompt) != 4 {
		t.Errorf("keep mode: %+v, count %d", out, rt.Store.Count(item.KindPrompt))
	}
}

func TestImport_BadLines(t *testing.T) {
	dir := t.TempDir()
	rt := newTestRuntime(t, allowDir(dir))
	ctx := context.Background()

	path := filepath.Join(dir, "mixed.jsonl")
	content := strings.Join([]string{
		`{"_pillbox_export":true,"schema_version":"1.0","exported_at":1}`,
		`{not json`,
		``,
		`{"id":"x1","kind":"note","text":"bad kind"}`,
		`{"id":"x2","kind":"prompt","text":"   "}`,
		`{"id":"x3","kind":"PROMPT","text":"good","category":"Side Project"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := Import(ctx, rt.Store, rt.Config, ImportInput{Path: path})
	require.NoError(t, err)
	require.Len(t, out.Errors, 3)
	if out.Imported != 0 {
		t.Errorf("error mode imported %d", out.Imported)
	}
	require.Equal(t, "PARSE_ERROR", out.Errors[0].Code)
	require.Equal(t, 2, out.Errors[0].Line)
	require.Equal(t, "INVALID_RECORD", out.Errors[1].Code)
	require.Equal(t, "x1", out.Errors[1].ID)

	out, err = Import(ctx, rt.Store, rt.Config, ImportInput{Path: path, Mode: ImportModeSkip})
	require.NoError(t, err)
	if out.Imported != 1 || out.Skipped != 3 {
		t.Errorf("skip mode: %+v", out)
	}
	items := rt.Store.List(item.KindPrompt, store.Filter{})
	require.Len(t, items, 1)
	if items[0].Category != "Side Project" {
		t.Errorf("Category = %q, want registered custom category", items[0].Category)
	}
}

func TestImport_InvalidMode(t *testing.T) {
	rt := newTestRuntime(t)
	_, err := Import(context.Background(), rt.Store, rt.Config, ImportInput{Path: "x.jsonl", Mode: "merge"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("got %v", err)
	}
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	existing := filepath.Join(dir, "here.jsonl")
	require.NoError(t, os.WriteFile(existing, []byte("{}\n"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o700))

	tests := []struct {
		name string
		path string
		mode PathCheckMode
		code errors.ErrorCode
	}{
		{"ok read", existing, PathCheckRead, ""},
		{"ok write", filepath.Join(dir, "new.jsonl"), PathCheckWrite, ""},
		{"empty", "", PathCheckWrite, errors.ErrInvalidRequest},
		{"traversal", dir + "/../x.jsonl", PathCheckWrite, errors.ErrInvalidRequest},
		{"extension", filepath.Join(dir, "x.json"), PathCheckWrite, errors.ErrInvalidRequest},
		{"outside", filepath.Join(other, "x.jsonl"), PathCheckWrite, errors.ErrInvalidRequest},
		{"subdirectory", filepath.Join(dir, "sub", "x.jsonl"), PathCheckWrite, errors.ErrInvalidRequest},
		{"missing read", filepath.Join(dir, "gone.jsonl"), PathCheckRead, errors.ErrFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, tt.mode, cfg)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}

	unsafe := config.DefaultConfig()
	unsafe.AllowUnsafePaths = true
	require.NoError(t, ValidatePath(filepath.Join(other, "x.jsonl"), PathCheckWrite, unsafe))
}

func TestValidatePath_Symlink(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	target := filepath.Join(t.TempDir(), "target.jsonl")
	require.NoError(t, os.WriteFile(target, nil, 0o600))
	link := filepath.Join(dir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if err := ValidatePath(link, PathCheckRead, cfg); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("got %v, want INVALID_REQUEST", err)
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := map[string]string{
		"prompt":       "prompt",
		"a/b\\c":       "a-b-c",
		"../etc":       "etc",
		"tab\there":    "tabhere",
		"--":           "unnamed",
		"":             "unnamed",
		"x//..//y":     "x-y",
		"Résumé notes": "Résumé notes",
	}
	for in, want := range tests {
		if got := SanitizeForFilename(in); got != want {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
