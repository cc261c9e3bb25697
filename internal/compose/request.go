package compose

import (
	"maps"
	"strings"

	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/placeholder"
)

// File is an extracted document to place ahead of the query.
type File struct {
	Name string
	Text string

	// Err is set when extraction failed; the file is still listed.
	Err error
}

// Request is everything that goes into one outbound prompt.
type Request struct {
	// Selection holds Prompt items in the order they are sent.
	Selection []*item.Item

	// FreeText is typed text appended after the selection. Any
	// [/NAME]="value" entries in it supply values and are removed.
	FreeText string

	// Values are explicit placeholder values; they win over entries in FreeText.
	Values map[string]string

	Files     []File
	Separator string

	// AllowMissing renders open placeholders literally instead of failing.
	AllowMissing bool
}

// Result is a composed prompt.
type Result struct {
	Text         string   `json:"text"`
	Placeholders []string `json:"placeholders,omitempty"`
	Missing      []string `json:"missing,omitempty"`
	Chars        int      `json:"chars"`
	Parts        int      `json:"parts"`
}

// Build composes a full request: the selection, then the free text, then
// any file context wrapped around the whole.
func Build(req Request) (*Result, error) {
	values := placeholder.ParseValues(req.FreeText)
	if values == nil {
		values = make(map[string]string, len(req.Values))
	}
	maps.Copy(values, req.Values)

	freeText := strings.TrimSpace(placeholder.StripValueEntries(req.FreeText))
	if len(req.Selection) == 0 && freeText == "" {
		return nil, errors.NewInvalidRequest("nothing to compose: select prompts or enter text")
	}

	var (
		body    string
		missing []string
		err     error
	)
	if len(req.Selection) > 0 {
		if req.AllowMissing {
			body, missing, err = Preview(req.Selection, values, req.Separator)
		} else {
			body, err = Compose(req.Selection, values, req.Separator)
		}
		if err != nil {
			return nil, err
		}
	}

	if freeText != "" {
		if body == "" {
			body = freeText
		} else {
			body += separator(req.Separator) + freeText
		}
	}

	text := InjectFileContext(req.Files, body)
	return &Result{
		Text:         text,
		Placeholders: PreviewPlaceholders(req.Selection),
		Missing:      missing,
		Chars:        item.CountChars(text),
		Parts:        len(req.Selection),
	}, nil
}

// FileContext renders files as an UPLOADED FILE CONTEXT block. It returns ""
// when there are no files.
func FileContext(files []File) string {
	if len(files) == 0 {
		return ""
	}
	parts := []string{"## UPLOADED FILE CONTEXT\n"}
	for _, f := range files {
		parts = append(parts, "### File: "+f.Name)
		if f.Err != nil {
			parts = append(parts, "[Error extracting content: "+f.Err.Error()+"]")
		} else {
			parts = append(parts, f.Text)
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

// InjectFileContext places the file context ahead of query under a QUERY
// heading. With no files, query is returned unchanged.
func InjectFileContext(files []File, query string) string {
	ctx := FileContext(files)
	if ctx == "" {
		return query
	}
	return ctx + "\n\n## QUERY\n\n" + query
}
