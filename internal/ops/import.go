package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// maxImportLine bounds one JSONL line; items are at most a few hundred KB.
const maxImportLine = 16 * 1024 * 1024

// ImportMode controls how bad lines and duplicates are handled.
type ImportMode string

const (
	ImportModeError ImportMode = "error" // any problem aborts; nothing is imported
	ImportModeSkip  ImportMode = "skip"  // bad lines and duplicates are skipped
	ImportModeKeep  ImportMode = "keep"  // bad lines are skipped, duplicates imported
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type importRecord struct {
	line int
	rec  item.ExportRecord
}

// Import reads a JSONL export and appends its items to their kinds in file
// order. Items get new ids; source_items references between imported
// summaries and responses are remapped, and references to items outside the
// file are dropped. Pending summaries are skipped. All accepted records are
// created in one transaction.
func Import(ctx context.Context, st *store.Store, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	switch input.Mode {
	case ImportModeError, ImportModeSkip, ImportModeKeep:
	default:
		return nil, errors.NewInvalidRequest("mode must be one of: error, skip, keep")
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, problems := parseExportFile(file, cfg.ItemMaxChars)
	out := &ImportOutput{Errors: problems}

	existing := make(map[string]bool)
	for _, it := range st.List("", store.Filter{}) {
		existing[string(it.Kind)+"\x00"+it.Fingerprint] = true
	}

	accepted := make([]importRecord, 0, len(records))
	for _, r := range records {
		if r.rec.Pending {
			out.Skipped++
			continue
		}
		key := string(r.rec.Kind) + "\x00" + item.Fingerprint(r.rec.Text, deref(r.rec.SourcePlatform))
		if existing[key] && input.Mode != ImportModeKeep {
			out.Errors = append(out.Errors, ImportError{
				Line:    r.line,
				ID:      r.rec.ID,
				Code:    "DUPLICATE",
				Message: "an item with the same kind and text already exists",
			})
			continue
		}
		existing[key] = true
		accepted = append(accepted, r)
	}

	if input.Mode == ImportModeError && len(out.Errors) > 0 {
		return out, nil
	}
	out.Skipped += len(out.Errors)
	if len(accepted) == 0 {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("import")
	}

	index := make(map[string]int, len(accepted))
	for i, r := range accepted {
		if r.rec.ID != "" {
			index[r.rec.ID] = i
		}
	}
	ins := make([]store.CreateInput, len(accepted))
	for i, r := range accepted {
		ins[i] = store.CreateInput{
			Kind:           r.rec.Kind,
			Text:           r.rec.Text,
			Title:          r.rec.Title,
			Category:       string(r.rec.Category),
			Color:          r.rec.Color,
			SourcePlatform: deref(r.rec.SourcePlatform),
		}
		for _, old := range r.rec.SourceItems {
			if j, ok := index[old]; ok && j != i {
				ins[i].SourceRefs = append(ins[i].SourceRefs, j)
			}
		}
	}
	created, err := st.CreateMany(ctx, ins)
	if err != nil {
		return nil, err
	}
	out.Imported = len(created)
	return out, nil
}

// parseExportFile reads records from a JSONL export. The header line is
// skipped; malformed and invalid lines are reported by line number.
func parseExportFile(r io.Reader, maxChars int) ([]importRecord, []ImportError) {
	var (
		records  []importRecord
		problems []ImportError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec item.ExportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			problems = append(problems, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if rec.PillboxExport {
			continue
		}

		if msg := validateRecord(&rec, maxChars); msg != "" {
			problems = append(problems, ImportError{
				Line:    lineNum,
				ID:      rec.ID,
				Code:    "INVALID_RECORD",
				Message: msg,
			})
			continue
		}
		records = append(records, importRecord{line: lineNum, rec: rec})
	}

	if err := scanner.Err(); err != nil {
		problems = append(problems, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}
	return records, problems
}

// validateRecord normalizes rec in place and returns a problem description,
// or "" when the record can be created.
func validateRecord(rec *item.ExportRecord, maxChars int) string {
	kind, err := item.ParseKind(string(rec.Kind))
	if err != nil {
		return err.Error()
	}
	rec.Kind = kind
	if strings.TrimSpace(rec.Text) == "" && !rec.Pending {
		return "missing text"
	}
	if err := item.CheckSize(rec.Text, maxChars); err != nil {
		return err.Error()
	}
	if strings.TrimSpace(string(rec.Category)) != "" {
		if _, err := item.ValidateCategoryName(string(rec.Category)); err != nil {
			return err.Error()
		}
	}
	return ""
}
