package ops

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hpungsan/pillbox/internal/compose"
	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/extract"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// MaxComposeFiles bounds the files one composition may attach.
const MaxComposeFiles = 20

// ComposeInput contains parameters for the Compose operation.
type ComposeInput struct {
	// ItemIDs are Prompt items in send order. Optional when FreeText is set.
	ItemIDs []string

	// FreeText follows the selection. [/NAME]="value" entries in it supply
	// placeholder values and are removed from the output.
	FreeText string

	// Values supply placeholder values and win over FreeText entries.
	Values map[string]string

	// FilePaths are extracted and placed ahead of the prompt as file context.
	FilePaths []string

	// FileGlob adds files matching a doublestar pattern under FileRoot.
	FileGlob string
	FileRoot string

	// Separator overrides the configured compose separator.
	Separator *string

	// AllowMissing leaves open placeholders in the output instead of failing.
	AllowMissing bool

	// StoreAs saves the composed text as a new Prompt.
	StoreAs *ComposeStoreAs
}

// ComposeStoreAs describes the Prompt to create from a composition.
type ComposeStoreAs struct {
	Title    string
	Category string
}

// ComposeFile reports one attached file.
type ComposeFile struct {
	Path   string         `json:"path"`
	Format extract.Format `json:"format,omitempty"`
	Chars  int            `json:"chars"`
	Error  string         `json:"error,omitempty"`
}

// ComposeOutput contains the result of the Compose operation.
type ComposeOutput struct {
	Text         string        `json:"text"`
	Chars        int           `json:"chars"`
	Parts        int           `json:"parts"`
	Placeholders []string      `json:"placeholders,omitempty"`
	Missing      []string      `json:"missing,omitempty"`
	Files        []ComposeFile `json:"files,omitempty"`
	Stored       *CreateOutput `json:"stored,omitempty"`
}

// Compose builds one outbound prompt from selected prompts, free text, and
// file context. Missing items fail the whole composition.
func Compose(ctx context.Context, st *store.Store, cfg *config.Config, input ComposeInput) (*ComposeOutput, error) {
	if len(input.ItemIDs) > MaxComposeItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many items: %d (max %d)", len(input.ItemIDs), MaxComposeItems))
	}

	selection, err := st.GetMany(input.ItemIDs)
	if err != nil {
		return nil, err
	}

	paths, err := composePaths(input)
	if err != nil {
		return nil, err
	}
	var (
		files   []compose.File
		results []extract.Result
	)
	if len(paths) > 0 {
		results, err = extract.ExtractAll(ctx, paths, extract.DefaultWorkers)
		if err != nil {
			return nil, err
		}
		files = extract.Files(results)
	}

	sep := cfg.ComposeSeparator
	if input.Separator != nil {
		sep = *input.Separator
	}

	res, err := compose.Build(compose.Request{
		Selection:    selection,
		FreeText:     input.FreeText,
		Values:       input.Values,
		Files:        files,
		Separator:    sep,
		AllowMissing: input.AllowMissing,
	})
	if err != nil {
		return nil, err
	}

	out := &ComposeOutput{
		Text:         res.Text,
		Chars:        res.Chars,
		Parts:        res.Parts,
		Placeholders: res.Placeholders,
		Missing:      res.Missing,
		Files:        composeFiles(results),
	}

	if input.StoreAs != nil {
		title := input.StoreAs.Title
		stored, err := Create(ctx, st, CreateInput{
			Kind:     string(item.KindPrompt),
			Text:     res.Text,
			Title:    &title,
			Category: input.StoreAs.Category,
		})
		if err != nil {
			return nil, err
		}
		out.Stored = stored
	}
	return out, nil
}

func composePaths(input ComposeInput) ([]string, error) {
	paths := append([]string(nil), input.FilePaths...)
	if input.FileGlob != "" {
		root := input.FileRoot
		if root == "" {
			root = "."
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid file_root: %v", err))
		}
		matched, err := extract.Glob(abs, input.FileGlob)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matched...)
	}
	if len(paths) > MaxComposeFiles {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many files: %d (max %d)", len(paths), MaxComposeFiles))
	}
	return paths, nil
}

func composeFiles(results []extract.Result) []ComposeFile {
	if len(results) == 0 {
		return nil
	}
	out := make([]ComposeFile, len(results))
	for i, r := range results {
		out[i] = ComposeFile{Path: r.Path}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		out[i].Format = r.Doc.Format
		out[i].Chars = item.CountChars(r.Doc.Text)
	}
	return out
}

// ComposePreviewInput contains parameters for the ComposePreview operation.
type ComposePreviewInput struct {
	ItemIDs   []string
	Values    map[string]string
	Separator *string
}

// ComposePreviewOutput contains the result of the ComposePreview operation.
type ComposePreviewOutput struct {
	Text         string   `json:"text"`
	Placeholders []string `json:"placeholders"`
	Missing      []string `json:"missing"`
}

// ComposePreview renders the selection with the values entered so far.
// Open placeholders stay as [/NAME] and are listed in Missing.
func ComposePreview(st *store.Store, cfg *config.Config, input ComposePreviewInput) (*ComposePreviewOutput, error) {
	if len(input.ItemIDs) == 0 {
		return nil, errors.NewInvalidRequest("item_ids is required and must not be empty")
	}
	if len(input.ItemIDs) > MaxComposeItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many items: %d (max %d)", len(input.ItemIDs), MaxComposeItems))
	}
	selection, err := st.GetMany(input.ItemIDs)
	if err != nil {
		return nil, err
	}

	sep := cfg.ComposeSeparator
	if input.Separator != nil {
		sep = *input.Separator
	}
	text, missing, err := compose.Preview(selection, input.Values, sep)
	if err != nil {
		return nil, err
	}
	return &ComposePreviewOutput{
		Text:         text,
		Placeholders: compose.PreviewPlaceholders(selection),
		Missing:      missing,
	}, nil
}
