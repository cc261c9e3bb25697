// Package extract reads local files into plain text for file-context
// injection and prompt import.
package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/pillbox/internal/errors"
)

// MaxFileSize is the largest file Extract will read.
const MaxFileSize = 50 * 1024 * 1024

// Format tags the kind of text a document was extracted from.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCode     Format = "code"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatNotebook Format = "notebook"
	FormatMarkup   Format = "markup"
)

var formats = map[string]Format{
	".txt": FormatText, ".log": FormatText, ".rtf": FormatText,
	".ini": FormatText, ".conf": FormatText, ".cfg": FormatText, ".env": FormatText,
	".gitignore": FormatText, ".dockerignore": FormatText,

	".md": FormatMarkdown, ".markdown": FormatMarkdown,

	".json": FormatJSON, ".yaml": FormatYAML, ".yml": FormatYAML, ".csv": FormatCSV, ".ipynb": FormatNotebook,

	".html": FormatMarkup, ".htm": FormatMarkup, ".xml": FormatMarkup,

	".py": FormatCode, ".js": FormatCode, ".ts": FormatCode, ".jsx": FormatCode, ".tsx": FormatCode,
	".java": FormatCode, ".c": FormatCode, ".cpp": FormatCode, ".h": FormatCode, ".hpp": FormatCode,
	".css": FormatCode, ".scss": FormatCode, ".sass": FormatCode, ".sql": FormatCode,
	".sh": FormatCode, ".bash": FormatCode, ".go": FormatCode, ".rs": FormatCode, ".rb": FormatCode,
	".php": FormatCode, ".swift": FormatCode, ".kt": FormatCode, ".scala": FormatCode, ".r": FormatCode,
}

// binary formats that need a document parser.
var unsupported = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true, ".xlsx": true, ".xls": true, ".pptx": true,
}

// Document is the text extracted from one file.
type Document struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Format Format `json:"format"`
	Text   string `json:"text"`
	Size   int64  `json:"size"`
}

// FormatFor returns the format tag for a path and whether its extension is
// known. Unknown extensions are read as plain text.
func FormatFor(path string) (Format, bool) {
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return FormatText, false
	}
	return f, true
}

// Supported reports whether Extract can read the file's format.
func Supported(path string) bool {
	return !unsupported[strings.ToLower(filepath.Ext(path))]
}

// Extract reads path and returns its text. Missing files are FILE_NOT_FOUND;
// anything that cannot be turned into text is EXTRACTION_ERROR.
func Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCancelled("extract")
	}
	if path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(path)
		}
		return nil, errors.NewExtraction(path, err)
	}
	if info.IsDir() {
		return nil, errors.NewExtraction(path, fmt.Errorf("is a directory"))
	}
	if info.Size() > MaxFileSize {
		return nil, errors.NewExtraction(path, fmt.Errorf("file is %d bytes, limit is %d", info.Size(), MaxFileSize))
	}
	if !Supported(path) {
		return nil, errors.NewExtraction(path, fmt.Errorf("unsupported format %s", filepath.Ext(path)))
	}

	f, err := openFileNoFollowRead(path)
	if err != nil {
		if pErr, ok := errors.As(err); ok {
			return nil, pErr
		}
		return nil, errors.NewExtraction(path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, errors.NewExtraction(path, err)
	}

	format, _ := FormatFor(path)
	text, err := decode(format, data)
	if err != nil {
		return nil, errors.NewExtraction(path, err)
	}

	return &Document{
		Path:   path,
		Name:   filepath.Base(path),
		Format: format,
		Text:   text,
		Size:   info.Size(),
	}, nil
}

func decode(format Format, data []byte) (string, error) {
	text := toUTF8(data)
	switch format {
	case FormatCSV:
		return csvTable(text)
	case FormatNotebook:
		return notebookSource(data)
	case FormatJSON:
		if strings.TrimSpace(text) != "" && !json.Valid([]byte(text)) {
			return "", fmt.Errorf("invalid JSON")
		}
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal([]byte(text), &v); err != nil {
			return "", fmt.Errorf("invalid YAML: %w", err)
		}
	}
	return strings.TrimSpace(text), nil
}

// toUTF8 strips a UTF-8 BOM and reinterprets invalid UTF-8 as Latin-1.
func toUTF8(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// csvTable renders CSV as a markdown table. Rows whose column count differs
// from the header are dropped.
func csvTable(text string) (string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	headers := rows[0]
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	lines := []string{
		"| " + strings.Join(headers, " | ") + " |",
		"|" + strings.Join(seps, "|") + "|",
	}
	for _, row := range rows[1:] {
		if len(row) == len(headers) {
			lines = append(lines, "| "+strings.Join(row, " | ")+" |")
		}
	}
	return strings.Join(lines, "\n"), nil
}

type notebook struct {
	Cells []struct {
		CellType string          `json:"cell_type"`
		Source   json.RawMessage `json:"source"`
	} `json:"cells"`
}

// notebookSource joins the sources of a Jupyter notebook's cells. Code cells
// are fenced.
func notebookSource(data []byte) (string, error) {
	var nb notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return "", fmt.Errorf("invalid notebook: %w", err)
	}

	parts := make([]string, 0, len(nb.Cells))
	for _, c := range nb.Cells {
		src, err := cellSource(c.Source)
		if err != nil {
			return "", err
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if c.CellType == "code" {
			src = "```\n" + src + "\n```"
		}
		parts = append(parts, src)
	}
	return strings.Join(parts, "\n\n"), nil
}

// cellSource accepts both encodings nbformat allows: a string or a list of lines.
func cellSource(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("invalid cell source: %w", err)
	}
	return strings.Join(lines, ""), nil
}
