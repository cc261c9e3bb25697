package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/item"
	"github.com/hpungsan/pillbox/internal/store"
)

// ExportSchemaVersion is written to every export header.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string   // optional, default: ~/.pillbox/exports/<kind>-<timestamp>.jsonl
	Kind string   // optional filter
	IDs  []string // optional, export only these items in this order
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	PillboxExport bool   `json:"_pillbox_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes items to a JSONL file: a header line, then one record per
// item. The file is written to a temp name and renamed into place, so an
// existing file survives a failed export.
func Export(ctx context.Context, st *store.Store, cfg *config.Config, input ExportInput) (*ExportOutput, error) {
	kind, err := parseOptionalKind(input.Kind)
	if err != nil {
		return nil, err
	}
	items, err := st.BulkExport(input.IDs)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	exportPath := input.Path
	if exportPath == "" {
		if exportPath, err = defaultExportPath(kind, now); err != nil {
			return nil, err
		}
	}
	if err := ValidatePath(exportPath, PathCheckWrite, cfg); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(exportPath), 0o700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(suffix) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}
	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ExportHeader{
		PillboxExport: true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    now.Unix(),
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	count := 0
	for _, it := range items {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("export")
		}
		if kind != "" && it.Kind != kind {
			continue
		}
		if err := enc.Encode(item.ToExportRecord(it)); err != nil {
			return nil, errors.NewInternal(err)
		}
		count++
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Windows cannot rename an open file.
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	if isSymlink(exportPath) {
		return nil, errors.NewInternal(fmt.Errorf("export path is a symlink"))
	}
	// On Windows, Rename fails when the destination exists; the existing file
	// is kept rather than replaced non-atomically.
	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; overwriting is not supported on Windows (choose a new path or delete the existing file)")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      count,
		ExportedAt: now.Unix(),
	}, nil
}

// defaultExportPath is ~/.pillbox/exports/<kind or "all">-<timestamp>.jsonl.
func defaultExportPath(kind item.Kind, now time.Time) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	name := "all"
	if kind != "" {
		name = SanitizeForFilename(string(kind))
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.jsonl", name, now.Format("2006-01-02T150405"))), nil
}
