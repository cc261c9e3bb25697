package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hpungsan/pillbox/internal/errors"
)

// DefaultSettle is how long a file must go unmodified before it is read.
const DefaultSettle = 500 * time.Millisecond

// Handler receives each extracted file. A non-nil error is logged and the
// watch continues.
type Handler func(ctx context.Context, doc *Document) error

// WatchOptions configures Watch.
type WatchOptions struct {
	Logger *zap.Logger

	// Settle overrides DefaultSettle when positive.
	Settle time.Duration

	// Existing also delivers files already in the directory at start.
	Existing bool
}

// Watch delivers files created or written in dir to fn until ctx is done.
// Rapid successive writes to one file are delivered once, after the file has
// been quiet for the settle interval. Hidden files and unsupported formats are
// skipped.
func Watch(ctx context.Context, dir string, opts WatchOptions, fn Handler) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFound(dir)
		}
		return errors.NewInternal(err)
	}
	if !info.IsDir() {
		return errors.NewInvalidRequest(dir + " is not a directory")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return errors.NewInternal(err)
	}
	log.Info("watching directory", zap.String("dir", dir))

	pending := make(map[string]time.Time)
	if opts.Existing {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return errors.NewInternal(err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				pending[filepath.Join(dir, e.Name())] = time.Time{}
			}
		}
	}

	tick := settle / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if watchable(event.Name) {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			for path, at := range pending {
				if now.Sub(at) < settle {
					continue
				}
				delete(pending, path)
				deliver(ctx, log, path, fn)
			}
		}
	}
}

func deliver(ctx context.Context, log *zap.Logger, path string, fn Handler) {
	if !watchable(path) {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}
	doc, err := Extract(ctx, path)
	if err != nil {
		log.Warn("skipping file", zap.String("path", path), zap.Error(err))
		return
	}
	if doc.Text == "" {
		log.Debug("skipping empty file", zap.String("path", path))
		return
	}
	if err := fn(ctx, doc); err != nil {
		log.Warn("file not imported", zap.String("path", path), zap.Error(err))
		return
	}
	log.Info("file imported", zap.String("path", path), zap.String("format", string(doc.Format)))
}

func watchable(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return Supported(path)
}
